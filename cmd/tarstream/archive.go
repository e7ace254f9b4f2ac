package main

import (
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
	"github.com/spf13/cobra"

	"github.com/ncw/tarstream"
	"github.com/ncw/tarstream/internal/tarlog"
)

func newArchiveCommand() *cobra.Command {
	var (
		headerMode     = tarstream.Complete
		followSymlinks bool
		useGzip        bool
		output         string
	)

	cmd := &cobra.Command{
		Use:   "archive <path>...",
		Short: "Write a tar archive of the given paths",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := tarstream.NewStreamer()
			s.SetHeaderMode(headerMode)
			s.SetFollowSymlinks(followSymlinks)

			for _, path := range args {
				info, err := os.Lstat(path)
				if err != nil {
					return err
				}
				if info.IsDir() {
					if err := s.AppendDir(path); err != nil {
						return err
					}
					if err := s.AppendDirAll(path); err != nil {
						return err
					}
					continue
				}
				if err := s.AppendPath(path); err != nil {
					return err
				}
			}

			var out io.Writer = cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return err
				}
				defer f.Close()
				out = f
			}

			if useGzip {
				gw := gzip.NewWriter(out)
				defer gw.Close()
				out = gw
			}

			tarlog.Infof("tarstream: archiving %d path(s)", len(args))
			_, err := io.Copy(out, s)
			return err
		},
	}

	cmd.Flags().Var(&headerMode, "header-mode", "metadata capture mode: complete, deterministic or minimal")
	cmd.Flags().BoolVar(&followSymlinks, "follow-symlinks", true, "dereference symlinks instead of archiving them as links")
	cmd.Flags().BoolVar(&useGzip, "gzip", false, "gzip-compress the archive")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")

	return cmd
}
