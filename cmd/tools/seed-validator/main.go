// cmd/tools/seed-validator/main.go
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"mergington-activities/pkg/registry"
)

const defaultSeedPath = "configs/activities.json"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		help(stderr)
		return 1
	}

	var err error
	switch args[0] {
	case "validate":
		err = validateCmd(args[1:], stdout)
	case "init":
		err = initCmd(args[1:], stdout)
	case "add":
		err = addCmd(args[1:], stdout)
	case "update":
		err = updateCmd(args[1:], stdout)
	case "help", "-h", "--help":
		help(stdout)
		return 0
	default:
		help(stderr)
		return 1
	}

	if err != nil {
		var verr *registry.SeedValidationError
		if errors.As(err, &verr) {
			fmt.Fprintln(stderr, "Seed validation failed:")
			for _, p := range verr.Problems {
				fmt.Fprintf(stderr, "  - %s\n", p)
			}
			return 1
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func validateCmd(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	pathFlag := fs.String("path", defaultSeedPath, "Path to seed file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	path, err := seedPath(fs, *pathFlag)
	if err != nil {
		return err
	}

	seed, err := registry.LoadSeed(path)
	if err != nil {
		return err
	}
	if len(seed.Activities) == 0 {
		return fmt.Errorf("seed contains no activities")
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ACTIVITY\tENROLLED\tCAPACITY\tSCHEDULE")
	for _, a := range seed.Activities {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\n", a.Name, len(a.Participants), a.MaxParticipants, a.Schedule)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(out, "Seed validation passed: %s (%d activities).\n", path, len(seed.Activities))
	return nil
}

func initCmd(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	pathFlag := fs.String("path", defaultSeedPath, "Path to write the seed file")
	force := fs.Bool("force", false, "Overwrite an existing file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	path, err := seedPath(fs, *pathFlag)
	if err != nil {
		return err
	}

	if _, err := os.Stat(path); err == nil && !*force {
		return fmt.Errorf("%s already exists (use -force to overwrite)", path)
	}

	seed := registry.DefaultSeed()
	seed.LastUpdated = time.Now().UTC().Format(time.RFC3339)
	if err := registry.SaveSeed(seed, path); err != nil {
		return err
	}
	fmt.Fprintf(out, "Wrote %d activities to %s\n", len(seed.Activities), path)
	return nil
}

func addCmd(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("add", flag.ContinueOnError)
	pathFlag := fs.String("path", defaultSeedPath, "Path to seed file")
	name := fs.String("name", "", "Activity name (e.g., Robotics Club)")
	description := fs.String("description", "", "Description")
	schedule := fs.String("schedule", "", "Schedule (e.g., Saturdays, 10:00 AM - 12:00 PM)")
	maxParticipants := fs.Int("max", 0, "Maximum participants")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *name == "" || *description == "" || *schedule == "" || *maxParticipants < 1 {
		fs.Usage()
		return fmt.Errorf("name, description, schedule and a positive max are required")
	}
	path, err := seedPath(fs, *pathFlag)
	if err != nil {
		return err
	}

	seed, err := registry.LoadSeed(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to load seed: %w", err)
		}
		seed = &registry.Seed{Version: "1.0.0"}
	}
	if _, exists := seed.Find(*name); exists {
		return fmt.Errorf("activity %q already exists", *name)
	}

	seed.Activities = append(seed.Activities, registry.ActivitySeed{
		Name:            *name,
		Description:     *description,
		Schedule:        *schedule,
		MaxParticipants: *maxParticipants,
		Participants:    []string{},
	})
	if err := save(seed, path); err != nil {
		return err
	}
	fmt.Fprintf(out, "Added activity: %s\n", *name)
	return nil
}

func updateCmd(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("update", flag.ContinueOnError)
	pathFlag := fs.String("path", defaultSeedPath, "Path to seed file")
	name := fs.String("name", "", "Activity name to update")
	description := fs.String("description", "", "New description")
	schedule := fs.String("schedule", "", "New schedule")
	maxParticipants := fs.Int("max", 0, "New maximum participants")
	if err := fs.Parse(args); err != nil {
		return err
	}

	changed := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { changed[f.Name] = true })
	if *name == "" || !(changed["description"] || changed["schedule"] || changed["max"]) {
		fs.Usage()
		return fmt.Errorf("name and at least one of description, schedule or max are required")
	}
	path, err := seedPath(fs, *pathFlag)
	if err != nil {
		return err
	}

	seed, err := registry.LoadSeed(path)
	if err != nil {
		return fmt.Errorf("failed to load seed: %w", err)
	}
	activity, ok := seed.Find(*name)
	if !ok {
		return fmt.Errorf("activity %q not found", *name)
	}

	if changed["description"] {
		activity.Description = *description
	}
	if changed["schedule"] {
		activity.Schedule = *schedule
	}
	if changed["max"] {
		activity.MaxParticipants = *maxParticipants
	}

	if err := save(seed, path); err != nil {
		return err
	}
	fmt.Fprintf(out, "Updated %s in %s\n", *name, path)
	return nil
}

// seedPath prefers a positional path over -path.
func seedPath(fs *flag.FlagSet, fromFlag string) (string, error) {
	switch fs.NArg() {
	case 0:
		return fromFlag, nil
	case 1:
		return fs.Arg(0), nil
	default:
		return "", fmt.Errorf("unexpected arguments: %v", fs.Args()[1:])
	}
}

// save refuses to write a seed the service would reject at startup.
func save(seed *registry.Seed, path string) error {
	if err := seed.Validate(); err != nil {
		return err
	}
	seed.LastUpdated = time.Now().UTC().Format(time.RFC3339)
	return registry.SaveSeed(seed, path)
}

func help(w io.Writer) {
	fmt.Fprintln(w, `Usage: seed-validator <command> [options] [path]

Commands:
  validate  Validate a seed file and print a roster summary
  init      Write the built-in Mergington roster to a seed file
  add       Add an activity with an empty roster
  update    Change an activity's description, schedule or max

path defaults to configs/activities.json.

Run "seed-validator <command> -h" for command options.`)
}
