package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/mediavault/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-d string   PostgreSQL DSN
//	-s string   JWT HMAC secret key
//	-t int      upload ticket TTL, minutes
//	-l int      download URL TTL, seconds
//	-u string   S3 root user
//	-p string   S3 root password
//	-b string   S3 bucket name
//	-g string   S3 region
//	-e string   S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//	-o string   content-hash service endpoint
//	-k string   content-hash service shared secret
//
// Notes:
//   - The function first filters os.Args to only the flags it recognizes using
//     flagx.FilterArgs, avoiding collisions with other components.
//   - Duration flags are accepted as integers and converted to time.Duration.
func parseFlags(config *Config) {
	// Filter args to include only the flags handled here.
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-s", "-t", "-l", "-u", "-p", "-b", "-g", "-e", "-o", "-k"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	uploadTicketTTL := fs.Int("t", int(config.UploadTicketTTL.Minutes()), "upload_ticket_ttl (in minutes)")
	downloadURLTTL := fs.Int("l", int(config.DownloadURLTTL.Seconds()), "download_url_ttl (in seconds)")

	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 root bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 root region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&config.HasherEndpoint, "o", config.HasherEndpoint, "content hash service endpoint")
	fs.StringVar(&config.HasherSecret, "k", config.HasherSecret, "content hash service secret")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.UploadTicketTTL = time.Duration(*uploadTicketTTL) * time.Minute
	config.DownloadURLTTL = time.Duration(*downloadURLTTL) * time.Second
}
