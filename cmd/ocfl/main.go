package main

import (
	"os"
	"os/user"

	"github.com/preservio/ocfl"
	"github.com/preservio/ocfl/drivers/fs"
	"github.com/preservio/ocfl/fspath"
	"github.com/preservio/ocfl/metadata"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"
)

var mainOpts = struct {
	root    string
	layout  string
	user    string
	address string
}{}

func main() {
	app := cli.NewApp()
	app.Name = "ocfl"
	app.Usage = "OCFL commandline utilities"
	app.EnableBashCompletion = true
	app.Commands = []cli.Command{
		cp,
		ls,
		mkroot,
		validate,
	}
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:        "root, r",
			Usage:       "OCFL root (uri or file)",
			EnvVar:      "OCFL_ROOT",
			Destination: &mainOpts.root,
		},
		cli.StringFlag{
			Name:        "layout, l",
			Usage:       "Storage layout for new objects {flat, hashed-n-tuple}",
			EnvVar:      "OCFL_LAYOUT",
			Value:       "flat",
			Destination: &mainOpts.layout,
		},
		cli.StringFlag{
			Name:        "user, u",
			Usage:       "OCFL user (for ocfl commit info)",
			EnvVar:      "USER",
			Destination: &mainOpts.user,
		},
		cli.StringFlag{
			Name:        "address, a",
			Usage:       "User Address (for ocfl commit info)",
			EnvVar:      "ADDRESS",
			Destination: &mainOpts.address,
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		logrus.Fatal(err)
	}
}

func newDriver() ocfl.Driver {
	d, err := fs.NewDriver(fs.Config{
		Root:           root(mainOpts.root),
		ObjectPathFunc: objectPath().Generate,
		FilePathFunc:   fs.Passthrough,
	})
	if err != nil {
		logrus.Fatalf("could not initialize file driver %+v", err)
	}
	return d
}

// objectPath picks the layout generator used to place new objects under
// the storage root
func objectPath() fspath.Generator {
	switch mainOpts.layout {
	case "", "flat":
		return fspath.Flat()
	case "hashed-n-tuple":
		gen, err := fspath.HashedNTuple(metadata.SHA256, 3, 3)
		if err != nil {
			logrus.Fatalf("could not build storage layout %+v", err)
		}
		return gen
	default:
		logrus.Fatalf("unknown storage layout %s", mainOpts.layout)
		return nil
	}
}

func root(dir string) string {
	if dir == "" {
		pwd, err := os.Getwd()
		if err != nil {
			logrus.Fatalf("could not get pwd %s", err)
		}
		dir = pwd
	}

	dir, err := fs.LocateRoot(dir)
	if err != nil {
		logrus.Fatalf("error locating root %s", err)
	}

	return dir
}

func userName() string {
	if mainOpts.user != "" {
		return mainOpts.user
	}

	user, err := user.Current()
	if err == nil && user.Name != "" {
		return user.Name
	}

	// Last ditch, on Windows
	name, _ := os.LookupEnv("USERNAME")
	return name
}

func address() string {
	if mainOpts.address != "" {
		return mainOpts.address
	}

	host, _ := os.Hostname()
	return userName() + "@" + host
}
