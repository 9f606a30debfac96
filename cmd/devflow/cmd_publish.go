package main

import (
	"fmt"
	"path/filepath"
	"sort"

	"devflow/cmd/devflow/conf"
	"devflow/cmd/devflow/engine"
	"devflow/cmd/devflow/gitutil"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Build and upload the package to a package index",
	Long: "Publish the package: check the working tree, optionally run tests,\n" +
		"build fresh artifacts, upload them with twine, and optionally tag the\n" +
		"release. The repository, signing, and tagging behavior come from the\n" +
		"[publish] config section.",
	RunE: func(cmd *cobra.Command, args []string) error {
		allowDirty, _ := cmd.Flags().GetBool("allow-dirty")
		yes, _ := cmd.Flags().GetBool("yes")
		version, _ := cmd.Flags().GetString("version")
		skipTests, _ := cmd.Flags().GetBool("skip-tests")

		a, err := loadApp()
		if err != nil {
			return err
		}
		pub := a.cfg.Publish

		if pub.RequireCleanWorkingTree && !allowDirty {
			if err := requireCleanTree(a.root); err != nil {
				return err
			}
		}

		tag := ""
		if pub.TagOnPublish {
			if version == "" {
				return fmt.Errorf("tag_on_publish is set: pass --version to name the release tag")
			}
			tag = gitutil.FormatTag(pub.TagFormat, pub.TagPrefix, version)
			exists, err := gitutil.TagExists(a.root, tag)
			if err != nil {
				return err
			}
			if exists {
				return fmt.Errorf("tag %q already exists", tag)
			}
		}

		if !yes && !flagDryRun {
			if err := confirmPublish(pub.Repository); err != nil {
				return err
			}
		}

		if pub.RunTestsBeforePublish && !skipTests {
			if err := runStep(a, testTask(a, nil)); err != nil {
				return err
			}
		}

		if err := cleanDist(a); err != nil {
			return err
		}
		if err := runStep(a, buildTask(a, nil)); err != nil {
			return err
		}

		upload, err := uploadTask(a, pub)
		if err != nil {
			return err
		}
		if err := runStep(a, upload); err != nil {
			return err
		}

		if tag != "" {
			if flagDryRun {
				logLine("publish", "Would tag "+tag, 0)
				return nil
			}
			if err := gitutil.CreateTag(a.root, tag, "Release "+version); err != nil {
				return err
			}
			logLine("publish", "Tagged "+tag, 0)
		}
		return nil
	},
}

// runStep runs one publish stage and stops the workflow on the first
// failure, carrying the stage's exit code.
func runStep(a *app, task *engine.Task) error {
	result, err := a.runOneOff(task)
	if err != nil {
		return err
	}
	return finish(result)
}

// uploadTask assembles the twine invocation over the built artifacts.
// Artifacts are globbed here, after the build stage ran; under dry-run the
// glob pattern stands in since nothing was built.
func uploadTask(a *app, pub conf.PublishConfig) (*engine.Task, error) {
	args := []string{"upload", "--repository", pub.Repository}
	if pub.Sign {
		args = append(args, "--sign")
	}
	args = append(args, pub.TwineArgs...)

	files, err := artifacts(a)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		if !flagDryRun {
			return nil, fmt.Errorf("no artifacts in %s after build", a.cfg.Paths.DistDir)
		}
		files = []string{filepath.Join(a.root, a.cfg.Paths.DistDir, "*")}
	}
	args = append(args, files...)

	return &engine.Task{
		Name:    "twine-upload",
		Command: "twine",
		Args:    args,
		UseVenv: true,
	}, nil
}

func requireCleanTree(root string) error {
	if !gitutil.IsRepository(root) {
		return fmt.Errorf("%s is not a git repository (use --allow-dirty to publish anyway)", root)
	}
	clean, err := gitutil.IsWorkingTreeClean(root)
	if err != nil {
		return err
	}
	if !clean {
		return fmt.Errorf("working tree has uncommitted changes (use --allow-dirty to publish anyway)")
	}
	return nil
}

func confirmPublish(repository string) error {
	confirmed := false
	err := huh.NewConfirm().
		Title("Publish to " + repository + "?").
		Description("Uploads cannot be undone on most indexes.").
		Value(&confirmed).
		Run()
	if err != nil {
		return err
	}
	if !confirmed {
		return fmt.Errorf("aborted")
	}
	return nil
}

// artifacts lists the files in the dist directory, sorted for stable
// command lines.
func artifacts(a *app) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(a.root, a.cfg.Paths.DistDir, "*"))
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	return matches, nil
}

func init() {
	publishCmd.Flags().Bool("allow-dirty", false, "skip the clean working tree check")
	publishCmd.Flags().BoolP("yes", "y", false, "skip the confirmation prompt")
	publishCmd.Flags().String("version", "", "release version, used for the git tag")
	publishCmd.Flags().Bool("skip-tests", false, "skip the pre-publish test run")
}
