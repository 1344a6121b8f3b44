package cli

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/dmitrijs2005/mediavault/internal/filex"
)

// Login prompts for an access token (no echo) and attaches it to the API
// client. The token is not validated here; the first API call will surface
// authentication failures.
func (a *App) Login(ctx context.Context) error {
	token, err := GetToken(os.Stdout)
	if err != nil {
		log.Println(err.Error())
		return err
	}
	if token == "" {
		log.Println("empty token, staying logged out")
		return nil
	}
	a.setToken(token)
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	a.setToken("")
	return nil
}

// List shows the asset listing: fresh from the server when possible, from the
// local cache otherwise.
func (a *App) List(ctx context.Context) error {
	items, err := a.assetService.Refresh(ctx)
	if err != nil {
		log.Printf("server listing unavailable (%s), using cache", err.Error())
		items, err = a.assetService.ListCached(ctx)
		if err != nil {
			log.Println(err.Error())
			return err
		}
	}

	for _, item := range items {
		fmt.Println(item)
	}
	return nil
}

func (a *App) Refresh(ctx context.Context) error {
	items, err := a.assetService.Refresh(ctx)
	if err != nil {
		log.Println(err.Error())
		return err
	}
	log.Printf("cached %d assets", len(items))
	return nil
}

func (a *App) Upload(ctx context.Context) error {
	path, err := GetSimpleText(a.reader, "Path of the file to upload", os.Stdout)
	if err != nil {
		log.Println(err.Error())
		return err
	}

	asset, err := a.assetService.Upload(ctx, path)
	if err != nil {
		log.Println(err.Error())
		return err
	}

	log.Printf("uploaded %s (%s)", asset.Filename, asset.Status)
	return nil
}

func (a *App) Download(ctx context.Context) error {
	id, err := GetSimpleText(a.reader, "Asset id", os.Stdout)
	if err != nil {
		log.Println(err.Error())
		return err
	}

	dir, err := filex.EnsureSubdDir("downloads")
	if err != nil {
		log.Println(err.Error())
		return err
	}

	dest, err := a.assetService.Download(ctx, id, dir)
	if err != nil {
		log.Println(err.Error())
		return err
	}

	log.Printf("saved to %s", dest)
	return nil
}

// cachedVersion resolves the last-seen version of an asset so mutations can
// present it for the compare-and-swap. Falls back to prompting when the cache
// does not know the asset.
func (a *App) cachedVersion(ctx context.Context, id string) (int64, error) {
	if cached, err := a.assetService.GetCached(ctx, id); err == nil {
		return cached.Version, nil
	}

	raw, err := GetSimpleText(a.reader, "Current version of the asset", os.Stdout)
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(raw, 10, 64)
}

func (a *App) Rename(ctx context.Context) error {
	id, err := GetSimpleText(a.reader, "Asset id", os.Stdout)
	if err != nil {
		log.Println(err.Error())
		return err
	}
	name, err := GetSimpleText(a.reader, "New filename", os.Stdout)
	if err != nil {
		log.Println(err.Error())
		return err
	}

	version, err := a.cachedVersion(ctx, id)
	if err != nil {
		log.Println(err.Error())
		return err
	}

	asset, err := a.api.Rename(ctx, id, name, version)
	if err != nil {
		log.Println(err.Error())
		return err
	}

	log.Printf("renamed to %s (v%d)", asset.Filename, asset.Version)
	return nil
}

func (a *App) Share(ctx context.Context) error {
	id, err := GetSimpleText(a.reader, "Asset id", os.Stdout)
	if err != nil {
		log.Println(err.Error())
		return err
	}
	grantee, err := GetSimpleText(a.reader, "Grantee subject id", os.Stdout)
	if err != nil {
		log.Println(err.Error())
		return err
	}

	version, err := a.cachedVersion(ctx, id)
	if err != nil {
		log.Println(err.Error())
		return err
	}

	asset, err := a.api.Share(ctx, id, grantee, true, version)
	if err != nil {
		log.Println(err.Error())
		return err
	}

	log.Printf("shared %s with %s (v%d)", asset.Filename, grantee, asset.Version)
	return nil
}

func (a *App) Revoke(ctx context.Context) error {
	id, err := GetSimpleText(a.reader, "Asset id", os.Stdout)
	if err != nil {
		log.Println(err.Error())
		return err
	}
	grantee, err := GetSimpleText(a.reader, "Grantee subject id", os.Stdout)
	if err != nil {
		log.Println(err.Error())
		return err
	}

	version, err := a.cachedVersion(ctx, id)
	if err != nil {
		log.Println(err.Error())
		return err
	}

	asset, err := a.api.RevokeShare(ctx, id, grantee, version)
	if err != nil {
		log.Println(err.Error())
		return err
	}

	log.Printf("revoked %s for %s (v%d)", asset.Filename, grantee, asset.Version)
	return nil
}

func (a *App) Delete(ctx context.Context) error {
	id, err := GetSimpleText(a.reader, "Asset id", os.Stdout)
	if err != nil {
		log.Println(err.Error())
		return err
	}

	version, err := a.cachedVersion(ctx, id)
	if err != nil {
		log.Println(err.Error())
		return err
	}

	if err := a.api.Delete(ctx, id, version); err != nil {
		log.Println(err.Error())
		return err
	}

	log.Printf("deleted %s", id)
	return nil
}
