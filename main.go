package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"studentdb/cli"
	"studentdb/config"
	"studentdb/db"
	"studentdb/logger"
	"studentdb/nodestore"
	"studentdb/record"
)

var (
	configPath              *string
	dataDir, dbName         *string
	dataFile, commandFile   *string
	outFile                 *string
	shouldReset, shouldSeed *bool
	seedNumRecords          *int
)

func eraseDataFolder(dir string) {
	err := os.RemoveAll(dir)
	if err != nil {
		panic(err)
	}
}

func seedDatabaseWithTestRecords(d *db.DB, log logrus.FieldLogger) {
	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
	added := 0
	for i := 0; i < *seedNumRecords; i++ {
		if _, err := d.Add(record.Fake(rnd)); err != nil {
			log.WithError(err).Debug("seed record skipped")
			continue
		}
		added++
	}
	log.WithField("records", added).Info("seeded database")
}

func main() {
	setupFlags()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	overrideConfig(cfg)

	log, err := logger.New(cfg.Log)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := run(cfg, log); err != nil {
		log.WithError(err).Fatal("studentdb failed")
	}
}

func run(cfg *config.Config, log *logrus.Logger) error {
	if *shouldReset {
		eraseDataFolder(cfg.Storage.Dir)
	}

	compression, err := nodestore.ParseCompression(cfg.Storage.Compression)
	if err != nil {
		return err
	}
	d, err := db.Open(cfg.Storage.Dir, cfg.Storage.Name, db.Options{
		Order:       cfg.Storage.Order,
		Compression: compression,
		SyncWrites:  cfg.Storage.SyncWrites,
		Logger:      log,
	})
	if err != nil {
		return err
	}
	defer d.Close()

	if *dataFile != "" {
		rep, err := d.Build(*dataFile)
		if err != nil {
			return err
		}
		if rep.Skipped > 0 || rep.NameConflicts > 0 {
			log.WithFields(logrus.Fields{
				"skipped":       rep.Skipped,
				"nameConflicts": rep.NameConflicts,
			}).Warn("data file had rejected lines")
		}
	}

	if *shouldSeed {
		seedDatabaseWithTestRecords(d, log)
	}

	c := cli.NewCli(d)
	if *commandFile == "" {
		c.Start()
		return nil
	}
	return runCommandFile(c, *commandFile, *outFile)
}

func runCommandFile(c *cli.Cli, commands, out string) error {
	in, err := os.Open(commands)
	if err != nil {
		return errors.Wrap(err, "open command file")
	}
	defer in.Close()

	w := os.Stdout
	if out != "" {
		w, err = os.Create(out)
		if err != nil {
			return errors.Wrap(err, "create output file")
		}
		defer w.Close()
	}
	return c.Run(in, w)
}

// flags given on the command line win over the config file
func overrideConfig(cfg *config.Config) {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "dir":
			cfg.Storage.Dir = *dataDir
		case "name":
			cfg.Storage.Name = *dbName
		}
	})
}

func setupFlags() {
	configPath = flag.String("config", "", "Path to a YAML or TOML config file.")
	dataDir = flag.String("dir", "data", "Folder holding the database files.")
	dbName = flag.String("name", "student1", "Database name; files are <name>.dat, <name>.ix1 and <name>.ix2.")
	dataFile = flag.String("data", "", "Data file to build the database from.")
	commandFile = flag.String("commands", "", "Command file to run; without it an interactive prompt starts.")
	outFile = flag.String("out", "", "Output file for -commands (default stdout).")
	shouldReset = flag.Bool("reset", false, "Reset the database by erasing its folder before startup.")
	shouldSeed = flag.Bool("seed", false, "Seed the database using records created with go-faker.")
	seedNumRecords = flag.Int("records", 1000, "Amount of records to seed the database with upon startup.")
	flag.Usage = func() {
		fmt.Println("\nStudent DB CLI\n\nArguments:")
		flag.PrintDefaults()
	}
	flag.Parse()
}
