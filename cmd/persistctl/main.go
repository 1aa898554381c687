// Package main implements persistctl, a small inspection tool for persist
// container files: dump them, convert between codecs and resolve storage
// locations for an organization/application pair.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/statekit/persist"
)

func main() {
	if err := mainImpl(); err != nil {
		fmt.Fprintf(os.Stderr, "persistctl: %v\n", err)
		os.Exit(1)
	}
}

const usage = `usage: persistctl [flags] <command> [args]

commands:
  dump <file>           decode a container file and print it as JSON
  convert <src> <dst>   rewrite a container file, codec chosen by dst extension
  path <type>           print the resolved storage location for a type
  version               print the engine version
`

func mainImpl() error {
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	org := flag.String("org", "", "Organization identifier (path command)")
	app := flag.String("app", "", "Application identifier (path command)")
	baseDir := flag.String("base-dir", "", "Base directory override (path command)")
	mode := flag.String("mode", "dev", "Storage mode (path command): dev, embed, dynamic, secure")
	secret := flag.String("secret", "", "Secret for sealed secure files")
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
	}
	flag.Parse()
	if err := setupLogger(*logLevel); err != nil {
		return err
	}

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		return errors.New("missing command")
	}
	switch args[0] {
	case "dump":
		if len(args) != 2 {
			return errors.New("usage: persistctl dump <file>")
		}
		return dumpCmd(args[1], []byte(*secret))
	case "convert":
		if len(args) != 3 {
			return errors.New("usage: persistctl convert <src> <dst>")
		}
		return convertCmd(args[1], args[2], []byte(*secret))
	case "path":
		if len(args) != 2 {
			return errors.New("usage: persistctl path <type>")
		}
		return pathCmd(*org, *app, *baseDir, *mode, args[1])
	case "version":
		fmt.Println(persist.Version)
		return nil
	default:
		flag.Usage()
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func setupLogger(level string) error {
	ll := &slog.LevelVar{}
	if err := ll.UnmarshalText([]byte(level)); err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	logger := slog.New(tint.NewHandler(colorable.NewColorable(os.Stderr), &tint.Options{
		Level:      ll,
		TimeFormat: "15:04:05.000",
		NoColor:    !isatty.IsTerminal(os.Stderr.Fd()),
	}))
	slog.SetDefault(logger)
	return nil
}

func dumpCmd(path string, secret []byte) error {
	f, err := persist.LoadAnyContainerFile(path, secret)
	if err != nil {
		return err
	}
	data, err := persist.EncodeContainer(f, ".json")
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(data)
	return err
}

func convertCmd(src, dst string, secret []byte) error {
	f, err := persist.LoadAnyContainerFile(src, secret)
	if err != nil {
		return err
	}
	if err := f.SaveToFile(dst); err != nil {
		return err
	}
	slog.Info("converted", "src", src, "dst", dst)
	return nil
}

func pathCmd(org, app, baseDir, modeStr, typeName string) error {
	if org == "" || app == "" {
		return errors.New("path requires -org and -app")
	}
	mode, err := persist.ParseMode(modeStr)
	if err != nil {
		return err
	}
	var opts []persist.Option
	if baseDir != "" {
		opts = append(opts, persist.WithBaseDir(baseDir))
	}
	m := persist.NewManager(org, app, opts...)
	p := m.ResourcePath(typeName, mode)
	if p == "" {
		fmt.Println("(embedded: never touches disk)")
		return nil
	}
	fmt.Println(p)
	return nil
}
