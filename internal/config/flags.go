package config

import (
	"flag"
	"os"
	"time"

	"github.com/healthbridge/udd/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-i int      poll interval, milliseconds
//	-m int      poll max tries
//	-x int      URL expiration, hours
//	-b string   user-data bucket name
//	-w int      worker pool size
//	-u string   S3 root user
//	-p string   S3 root password
//	-g string   S3 region
//	-e string   S3 base endpoint
//	-d string   catalog database DSN
//	-r string   Redis URL
//
// The function first filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, avoiding collisions with other components.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-i", "-m", "-x", "-b", "-w", "-u", "-p", "-g", "-e", "-d", "-r"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	pollIntervalMillis := fs.Int("i", int(config.PollInterval.Milliseconds()), "poll interval (milliseconds)")
	pollMaxTries := fs.Int("m", config.PollMaxTries, "poll max tries")
	urlExpirationHours := fs.Int("x", int(config.URLExpiration.Hours()), "presigned URL expiration (hours)")

	fs.StringVar(&config.UserDataBucket, "b", config.UserDataBucket, "user-data bucket")
	workerPoolSize := fs.Int("w", config.WorkerPoolSize, "worker pool size")

	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	fs.StringVar(&config.CatalogDSN, "d", config.CatalogDSN, "catalog database DSN")
	fs.StringVar(&config.RedisURL, "r", config.RedisURL, "redis URL")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.PollInterval = time.Duration(*pollIntervalMillis) * time.Millisecond
	config.PollMaxTries = *pollMaxTries
	config.URLExpiration = time.Duration(*urlExpirationHours) * time.Hour
	config.WorkerPoolSize = *workerPoolSize
}
