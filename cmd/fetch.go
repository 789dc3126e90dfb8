package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/spaghettifunk/anima-io/engine"
	"github.com/spaghettifunk/anima-io/engine/assets"
	"github.com/spaghettifunk/anima-io/engine/core"
)

func fetchCmd() *cobra.Command {
	var (
		cachePath string
		decode    bool
	)
	cmd := &cobra.Command{
		Use:   "fetch KEY...",
		Short: "Load assets with their dependencies and list what was fetched",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEngine(cmd)
			if err != nil {
				return err
			}
			defer e.Shutdown()

			store := assets.NewRawAssetStore()
			if cachePath != "" {
				if store, err = readCache(cachePath); err != nil {
					return err
				}
			}
			before := store.Len()

			if _, err := e.LoadInto(cmd.Context(), store, args...); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			printStore(out, store)
			m := e.Metrics()
			fmt.Fprintf(out, "%d assets (%d new), %d fetches, %d bytes, %d rounds in %s\n",
				store.Len(), store.Len()-before, m.TotalFetches(), m.BytesFetched(), m.Rounds(), m.RoundTime())

			if decode {
				if err := decodeAll(out, e, store, args); err != nil {
					return err
				}
			}
			if cachePath != "" {
				return writeCache(cachePath, store)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&cachePath, "cache", "", "snapshot file to start from and update")
	cmd.Flags().BoolVar(&decode, "decode", false, "decode the requested keys with their format")
	return cmd
}

func printStore(w io.Writer, store *assets.RawAssetStore) {
	for _, k := range store.Keys() {
		b, _ := store.Get(k)
		digest, _ := store.Digest(k)
		name := k.String()
		if k.Kind() == assets.KindDataURI && len(name) > 48 {
			name = name[:45] + "..."
		}
		fmt.Fprintf(w, "%-5s %10d  %x  %s\n", k.Kind(), len(b), digest[:6], name)
	}
}

func decodeAll(w io.Writer, e *engine.Engine, store *assets.RawAssetStore, keys []string) error {
	var errs []error
	for _, k := range keys {
		v, err := e.Deserialize(k, store)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", k, err))
			continue
		}
		fmt.Fprintf(w, "decoded %s as %T\n", k, v)
	}
	return errors.Join(errs...)
}

func readCache(path string) (*assets.RawAssetStore, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return assets.NewRawAssetStore(), nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	store, err := assets.ReadSnapshot(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	core.LogDebug("cache %s holds %d assets", path, store.Len())
	return store, nil
}

// writeCache replaces path only once the snapshot is complete.
func writeCache(path string, store *assets.RawAssetStore) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := assets.WriteSnapshot(tmp, store); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
