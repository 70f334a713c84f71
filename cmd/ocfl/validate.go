package main

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/pkg/errors"
	"github.com/preservio/ocfl/drivers/cloud"
	"github.com/preservio/ocfl/drivers/fs"
	"github.com/preservio/ocfl/pathconstraint"
	"github.com/preservio/ocfl/validation"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"golang.org/x/sync/errgroup"
)

var validateOpts = struct {
	noFixity bool
	profile  string
	workers  int

	s3endpoint string
	s3bucket   string
	s3prefix   string
	s3access   string
	s3secret   string
	s3region   string
	s3ssl      bool
}{}

var validate cli.Command = cli.Command{
	Name:  "validate",
	Usage: "Validate OCFL objects",
	Description: `Check OCFL objects for conformance with the OCFL specification.

	Each argument names an OCFL object root to validate.  With -root (or
	OCFL_ROOT), arguments are paths relative to that root; otherwise each
	argument is a local directory.  With -s3-endpoint, arguments are key
	prefixes in the given bucket and objects are validated in place,
	without downloading their trees.

	Every problem found is reported with its OCFL validation code.  The
	exit status is nonzero if any object has errors; warnings do not
	affect it.
	`,
	ArgsUsage: "path ...",
	Flags: []cli.Flag{
		cli.BoolFlag{
			Name:        "no-fixity, n",
			Usage:       "Skip recomputing content file digests",
			Destination: &validateOpts.noFixity,
		},
		cli.StringFlag{
			Name:        "profile, p",
			Usage:       "Content path portability profile {none, unix, windows, cloud, all}",
			Value:       "none",
			Destination: &validateOpts.profile,
		},
		cli.IntFlag{
			Name:        "workers, w",
			Usage:       "Number of objects to validate concurrently",
			Value:       4,
			Destination: &validateOpts.workers,
		},
		cli.StringFlag{
			Name:        "s3-endpoint",
			Usage:       "S3 endpoint (host:port) holding the objects",
			EnvVar:      "OCFL_S3_ENDPOINT",
			Destination: &validateOpts.s3endpoint,
		},
		cli.StringFlag{
			Name:        "s3-bucket",
			Usage:       "S3 bucket holding the objects",
			EnvVar:      "OCFL_S3_BUCKET",
			Destination: &validateOpts.s3bucket,
		},
		cli.StringFlag{
			Name:        "s3-prefix",
			Usage:       "Key prefix under which objects live",
			EnvVar:      "OCFL_S3_PREFIX",
			Destination: &validateOpts.s3prefix,
		},
		cli.StringFlag{
			Name:        "s3-access-key",
			Usage:       "S3 access key",
			EnvVar:      "AWS_ACCESS_KEY_ID",
			Destination: &validateOpts.s3access,
		},
		cli.StringFlag{
			Name:        "s3-secret-key",
			Usage:       "S3 secret key",
			EnvVar:      "AWS_SECRET_ACCESS_KEY",
			Destination: &validateOpts.s3secret,
		},
		cli.StringFlag{
			Name:        "s3-region",
			Usage:       "S3 region",
			EnvVar:      "AWS_REGION",
			Destination: &validateOpts.s3region,
		},
		cli.BoolFlag{
			Name:        "s3-ssl",
			Usage:       "Connect to S3 over https",
			EnvVar:      "OCFL_S3_SSL",
			Destination: &validateOpts.s3ssl,
		},
	},

	Action: func(c *cli.Context) error {
		return validateAction(c.Args())
	},
}

// validateJob is one object to validate: where to read it from, the
// object root path within that storage, and the name to report it as
type validateJob struct {
	store validation.Storage
	path  string
	label string
}

func validateAction(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("no objects to validate")
	}

	profile, err := pathconstraint.ParseProfile(validateOpts.profile)
	if err != nil {
		return err
	}
	paths, err := pathconstraint.ForProfile(profile)
	if err != nil {
		return err
	}

	jobs, err := validateJobs(args)
	if err != nil {
		return err
	}

	workers := validateOpts.workers
	if workers < 1 {
		workers = 1
	}

	var failed int64

	q := make(chan validateJob)
	var g errgroup.Group
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			for j := range q {
				v := validation.Validator{
					Store:      j.store,
					Paths:      paths,
					SkipFixity: validateOpts.noFixity,
				}
				if report(j.label, v.ValidateObject(j.path)) {
					atomic.AddInt64(&failed, 1)
				}
			}
			return nil
		})
	}

	for _, j := range jobs {
		q <- j
	}
	close(q)
	_ = g.Wait()

	if failed > 0 {
		return cli.NewExitError(fmt.Sprintf("%d of %d objects failed validation", failed, len(jobs)), 1)
	}
	return nil
}

// validateJobs maps the command arguments onto storage views and object
// root paths within them
func validateJobs(args []string) ([]validateJob, error) {
	jobs := make([]validateJob, 0, len(args))

	switch {
	case validateOpts.s3endpoint != "":
		store, err := cloud.NewStore(context.Background(), cloud.Config{
			Endpoint:  validateOpts.s3endpoint,
			Bucket:    validateOpts.s3bucket,
			Prefix:    validateOpts.s3prefix,
			AccessKey: validateOpts.s3access,
			SecretKey: validateOpts.s3secret,
			Region:    validateOpts.s3region,
			UseSSL:    validateOpts.s3ssl,
		})
		if err != nil {
			return nil, errors.Wrap(err, "could not open object store")
		}
		for _, arg := range args {
			jobs = append(jobs, validateJob{store: store, path: arg, label: arg})
		}
	case mainOpts.root != "":
		store := fs.NewStore(mainOpts.root)
		for _, arg := range args {
			jobs = append(jobs, validateJob{store: store, path: arg, label: arg})
		}
	default:
		for _, arg := range args {
			jobs = append(jobs, validateJob{store: fs.NewStore(arg), path: ".", label: arg})
		}
	}

	return jobs, nil
}

// report logs everything wrong with one object and tells whether the
// object failed validation
func report(label string, r *validation.Results) bool {
	log := logrus.WithField("object", label)

	for _, issue := range r.Errors() {
		log.Error(issue)
	}
	for _, issue := range r.Warnings() {
		log.Warn(issue)
	}
	for _, issue := range r.Infos() {
		log.Info(issue)
	}

	summary := log.WithFields(logrus.Fields{
		"errors":   len(r.Errors()),
		"warnings": len(r.Warnings()),
	})
	if r.HasErrors() {
		summary.Error("object is not valid")
		return true
	}
	summary.Info("object is valid")
	return false
}
