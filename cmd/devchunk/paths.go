package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"devchunk/internal/chunk"
	"devchunk/internal/ident"
)

var assetPathCmd = &cobra.Command{
	Use:   "asset-path <file> [content-hash]",
	Short: "Print the content addressed output path of a static asset",
	Long: `asset-path prints where a static asset is written. Without a content
hash the file is read and hashed.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		manifest, err := loadManifestFor(cmd)
		if err != nil {
			return err
		}
		b, err := manifest.policyBuilder()
		if err != nil {
			return err
		}
		id, err := identFromArg(args[0])
		if err != nil {
			return err
		}
		hash := ""
		if len(args) == 2 {
			hash = args[1]
		} else {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to hash %s: %w", args[0], err)
			}
			hash = chunk.ContentHash(data)
		}
		p, err := b.Build().AssetPath(hash, id)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), p)
		return nil
	},
}

var assetURLCmd = &cobra.Command{
	Use:   "asset-url <output-path>",
	Short: "Print the public URL of a file below the output root",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		manifest, err := loadManifestFor(cmd)
		if err != nil {
			return err
		}
		b, err := manifest.policyBuilder()
		if err != nil {
			return err
		}
		id, err := identFromArg(args[0])
		if err != nil {
			return err
		}
		url, err := b.Build().AssetURL(id)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), url)
		return nil
	},
}

var (
	chunkPathExt       string
	chunkPathModifiers []string
)

func init() {
	chunkPathCmd.Flags().StringVar(&chunkPathExt, "ext", ".js", "output extension, including the dot")
	chunkPathCmd.Flags().StringSliceVar(&chunkPathModifiers, "modifier", nil, "identity modifiers, in order")
	sameChunkCmd.Flags().Bool("both", false, "also check the reverse direction")
}

var chunkPathCmd = &cobra.Command{
	Use:   "chunk-path <module>",
	Short: "Print the output path and URL of the chunk named after a module",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		manifest, err := loadManifestFor(cmd)
		if err != nil {
			return err
		}
		b, err := manifest.policyBuilder()
		if err != nil {
			return err
		}
		id, err := identFromArg(args[0])
		if err != nil {
			return err
		}
		for _, mod := range chunkPathModifiers {
			id = id.WithModifier(mod)
		}
		policy := b.Build()
		p := policy.ChunkPath(id, chunkPathExt)
		url, err := policy.ChunkURL(p)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\n%s\n", p, url)
		return nil
	},
}

var sameChunkCmd = &cobra.Command{
	Use:   "same-chunk <a> <b>",
	Short: "Report whether module b may join the chunk of module a",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		manifest, err := loadManifestFor(cmd)
		if err != nil {
			return err
		}
		b, err := manifest.policyBuilder()
		if err != nil {
			return err
		}
		policy := b.Build()
		a, err := moduleFromArg(args[0])
		if err != nil {
			return err
		}
		other, err := moduleFromArg(args[1])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s: %t\n", args[0], args[1], policy.CanBeInSameChunk(a, other))
		if both, _ := cmd.Flags().GetBool("both"); both {
			fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s: %t\n", args[1], args[0], policy.CanBeInSameChunk(other, a))
		}
		return nil
	},
}

func identFromArg(arg string) (ident.AssetIdent, error) {
	abs, err := filepath.Abs(arg)
	if err != nil {
		return ident.AssetIdent{}, fmt.Errorf("failed to resolve %q: %w", arg, err)
	}
	return ident.New(filepath.ToSlash(abs)), nil
}

func moduleFromArg(arg string) (chunk.Module, error) {
	id, err := identFromArg(arg)
	if err != nil {
		return nil, err
	}
	return &chunk.StaticModule{ID: id}, nil
}
