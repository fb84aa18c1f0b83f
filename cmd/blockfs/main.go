package main

import (
	"encoding/json"
	"errors"
	"fmt"
	stdio "io"
	"net/http"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"github.com/weberc2/blockfs/pkg/api"
	"github.com/weberc2/blockfs/pkg/device"
	"github.com/weberc2/blockfs/pkg/fs"
	"github.com/weberc2/blockfs/pkg/path"
	. "github.com/weberc2/blockfs/pkg/types"
	pz "github.com/weberc2/httpeasy"
)

func main() {
	var config Config
	app := cli.App{
		Name:        appName,
		Description: "format, inspect and serve blockfs volumes",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "backend",
				Usage: "storage backend: `file`, `s3` or `postgres`",
			},
			&cli.StringFlag{
				Name:  "path",
				Usage: "image path for the file backend",
			},
			&cli.Int64Flag{
				Name:  "image-offset",
				Usage: "byte offset of the volume within the image file",
			},
			&cli.StringFlag{
				Name:  "bucket",
				Usage: "bucket for the s3 backend",
			},
			&cli.StringFlag{
				Name:  "prefix",
				Usage: "key prefix for the s3 backend",
			},
			&cli.BoolFlag{
				Name:  "gzip",
				Usage: "gzip blocks stored by the s3 backend",
			},
			&cli.StringFlag{
				Name:  "volume",
				Usage: "volume name for the s3 and postgres backends",
			},
			&cli.IntFlag{
				Name:  "cache",
				Usage: "number of blocks to keep in memory",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "logrus level (e.g., `debug`, `info`, `warn`)",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "`text` or `json`",
			},
		},
		Before: func(ctx *cli.Context) error {
			c, err := LoadConfig()
			if err != nil {
				return err
			}
			c.applyFlags(ctx)
			if err := c.Validate(); err != nil {
				return err
			}
			if err := c.configureLogging(); err != nil {
				return err
			}
			config = *c
			return nil
		},
		Commands: []*cli.Command{{
			Name:        "format",
			Aliases:     []string{"mkfs"},
			Description: "write an empty volume, discarding any existing data",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "label",
					Usage: "a human-readable volume label",
				},
				&cli.BoolFlag{
					Name:  "welcome",
					Usage: "add a README.txt to the root directory",
				},
				&cli.Int64Flag{
					Name:  "size",
					Usage: "image size in bytes (file backend only)",
					Value: int64(ImageSize),
				},
			},
			Action: func(ctx *cli.Context) error {
				size := Byte(ctx.Int64("size"))
				if size < ImageSize {
					return fmt.Errorf(
						"image size `%d` is smaller than the minimum `%d`",
						size,
						ImageSize,
					)
				}
				dev, closeDevice, err := openDevice(&config, size)
				if err != nil {
					return err
				}
				defer closeDevice()

				if wiper, ok := dev.(device.Wiper); ok {
					if err := wiper.Wipe(); err != nil {
						return err
					}
				}
				return fs.Format(dev, fs.FormatParams{
					Label:   ctx.String("label"),
					Welcome: ctx.Bool("welcome"),
				})
			},
		}, {
			Name:        "superblock",
			Description: "print the superblock as JSON",
			Action: withVolume(&config, func(vol *fs.Volume, ctx *cli.Context) error {
				return printJSON(vol.Superblock())
			}),
		}, {
			Name:        "ls",
			Aliases:     []string{"list"},
			ArgsUsage:   "PATH",
			Description: "list a directory",
			Action: withVolume(&config, func(vol *fs.Volume, ctx *cli.Context) error {
				inode, err := path.Resolve(vol, pathArg(ctx))
				if err != nil {
					return err
				}
				if !inode.IsDir() {
					return printInode(inode, pathArg(ctx))
				}
				entries, err := vol.ReadDirAll(inode.Ino)
				if err != nil {
					return err
				}
				for _, entry := range entries {
					child, err := vol.Stat(entry.Ino)
					if err != nil {
						return err
					}
					if err := printInode(child, entry.Name); err != nil {
						return err
					}
				}
				return nil
			}),
		}, {
			Name:        "stat",
			ArgsUsage:   "PATH",
			Description: "print an inode as JSON",
			Action: withVolume(&config, func(vol *fs.Volume, ctx *cli.Context) error {
				inode, err := path.Resolve(vol, pathArg(ctx))
				if err != nil {
					return err
				}
				return printJSON(inode)
			}),
		}, {
			Name:        "cat",
			ArgsUsage:   "PATH",
			Description: "print a file's contents",
			Flags: []cli.Flag{
				&cli.Int64Flag{Name: "offset", Usage: "first byte to print"},
				&cli.Int64Flag{
					Name:  "length",
					Usage: "maximum number of bytes to print",
					Value: int64(BlockSize),
				},
			},
			Action: withVolume(&config, func(vol *fs.Volume, ctx *cli.Context) error {
				inode, err := path.Resolve(vol, pathArg(ctx))
				if err != nil {
					return err
				}
				data, err := vol.Read(
					inode.Ino,
					Byte(ctx.Int64("offset")),
					Byte(ctx.Int64("length")),
				)
				if err != nil {
					return err
				}
				if _, err := os.Stdout.Write(data); err != nil {
					return fmt.Errorf("writing to stdout: %w", err)
				}
				return nil
			}),
		}, {
			Name:        "touch",
			ArgsUsage:   "PATH",
			Description: "create an empty file if none exists",
			Action: withVolume(&config, func(vol *fs.Volume, ctx *cli.Context) error {
				_, err := createFile(vol, pathArg(ctx))
				return err
			}),
		}, {
			Name:        "mkdir",
			ArgsUsage:   "PATH",
			Description: "create a directory",
			Action: withVolume(&config, func(vol *fs.Volume, ctx *cli.Context) error {
				parent, name, err := path.ResolveParent(vol, pathArg(ctx))
				if err != nil {
					return err
				}
				_, err = vol.Mkdir(parent.Ino, name, fs.DefaultDirPerm)
				return err
			}),
		}, {
			Name:      "write",
			ArgsUsage: "PATH",
			Description: "write --data (or stdin) into a file, creating it " +
				"when necessary",
			Flags: []cli.Flag{
				&cli.Int64Flag{Name: "offset", Usage: "first byte to write"},
				&cli.StringFlag{
					Name:  "data",
					Usage: "the data to write. Defaults to stdin.",
				},
			},
			Action: withVolume(&config, func(vol *fs.Volume, ctx *cli.Context) error {
				inode, err := createFile(vol, pathArg(ctx))
				if err != nil {
					return err
				}

				var data []byte
				if ctx.IsSet("data") {
					data = []byte(ctx.String("data"))
				} else if data, err = stdio.ReadAll(
					stdio.LimitReader(os.Stdin, int64(BlockSize)+1),
				); err != nil {
					return fmt.Errorf("reading stdin: %w", err)
				}

				n, err := vol.Write(inode.Ino, Byte(ctx.Int64("offset")), data)
				if err != nil {
					return err
				}
				log.WithField("ino", inode.Ino).Infof("wrote `%d` bytes", n)
				return nil
			}),
		}, {
			Name:        "check",
			Aliases:     []string{"fsck"},
			Description: "check the volume for inconsistencies",
			Action: withVolume(&config, func(vol *fs.Volume, ctx *cli.Context) error {
				report, err := vol.Check()
				if err != nil {
					return err
				}
				if err := printJSON(report); err != nil {
					return err
				}
				if !report.OK() {
					return cli.Exit(
						fmt.Sprintf("found `%d` problems", len(report.Problems)),
						1,
					)
				}
				return nil
			}),
		}, {
			Name:        "serve",
			Description: "serve the volume over HTTP",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "addr", Usage: "the address to bind"},
			},
			Action: withVolume(&config, func(vol *fs.Volume, ctx *cli.Context) error {
				addr := config.Addr
				if ctx.IsSet("addr") {
					addr = ctx.String("addr")
				}
				server := api.Server{Volume: vol}
				log.Infof("listening on %s", addr)
				return http.ListenAndServe(
					addr,
					pz.Register(pz.JSONLog(os.Stderr), server.Routes()...),
				)
			}),
		}},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func withVolume(
	config *Config,
	f func(*fs.Volume, *cli.Context) error,
) cli.ActionFunc {
	return func(ctx *cli.Context) error {
		dev, closeDevice, err := openDevice(config, 0)
		if err != nil {
			return err
		}
		defer closeDevice()

		vol, err := fs.Mount(dev, fs.MountParams{
			CacheCapacity: config.CacheCapacity,
		})
		if err != nil {
			return err
		}

		if err := f(vol, ctx); err != nil {
			vol.Close()
			return err
		}
		return vol.Close()
	}
}

func pathArg(ctx *cli.Context) string {
	if ctx.Args().Len() < 1 {
		return "/"
	}
	return ctx.Args().First()
}

// createFile returns the regular file at `p`, creating it if it doesn't
// exist.
func createFile(vol *fs.Volume, p string) (Inode, error) {
	parent, name, err := path.ResolveParent(vol, p)
	if err != nil {
		return Inode{}, err
	}
	inode, err := vol.Lookup(parent.Ino, name)
	if err == nil {
		if inode.IsDir() {
			return Inode{}, fmt.Errorf("opening `%s`: %w", p, IsADirErr)
		}
		return inode, nil
	}
	if !errors.Is(err, NotFoundErr) {
		return Inode{}, err
	}
	return vol.CreateFile(parent.Ino, name, fs.DefaultFilePerm)
}

func printInode(inode Inode, name string) error {
	if _, err := fmt.Printf(
		"%d\t%s\t%d\t%s\n",
		inode.Ino,
		inode.Mode,
		inode.Size,
		name,
	); err != nil {
		return fmt.Errorf("writing to stdout: %w", err)
	}
	return nil
}

func printJSON(x interface{}) error {
	data, err := json.MarshalIndent(x, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling to JSON: %w", err)
	}
	if _, err := fmt.Printf("%s\n", data); err != nil {
		return fmt.Errorf("writing JSON to stdout: %w", err)
	}
	return nil
}
