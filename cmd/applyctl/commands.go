package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"go-openclaw-applier/internal/app"
	"go-openclaw-applier/internal/browser"
	"go-openclaw-applier/internal/config"
	"go-openclaw-applier/internal/database"
	"go-openclaw-applier/internal/jobboard"
	"go-openclaw-applier/internal/models"
	"go-openclaw-applier/internal/pdf"
	"go-openclaw-applier/internal/remote"
)

func readResume(path string) (*models.Resume, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var r models.Resume
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &r, nil
}

func printLogs(w io.Writer, entries []models.LogEntry) {
	for _, e := range entries {
		fmt.Fprintf(w, "%s [%s] %s\n", e.Timestamp.Format(time.TimeOnly), e.Level, e.Message)
	}
}

func newRunCmd(cfg *config.Config) *cobra.Command {
	var resumePath, dataPath string

	cmd := &cobra.Command{
		Use:   "run <job-url>",
		Short: "Apply to one job and print the application log",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref := models.ResumeRef{FilePath: resumePath}
			if dataPath != "" {
				doc, err := readResume(dataPath)
				if err != nil {
					return err
				}
				ref.Profile = doc.Profile()
			}

			ctx := cmd.Context()
			engine, closeEngine, err := app.NewEngine(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeEngine()

			store := database.NewMemoryStore()
			orch, err := app.NewOrchestrator(cfg, store, engine)
			if err != nil {
				return err
			}

			task := models.NewApplicationTask(uuid.NewString(), args[0], ref, time.Now())
			if err := store.Create(ctx, task); err != nil {
				return err
			}
			err = orch.Run(ctx, task.ID)
			orch.WaitNotifications()
			if err != nil {
				return err
			}

			done, err := store.Get(ctx, task.ID)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			printLogs(out, done.Logs)
			fmt.Fprintf(out, "\nstatus: %s\n", done.Status)
			if done.Status == models.StatusFailed {
				return errors.New(*done.ErrorMessage)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&resumePath, "resume", "", "resume file to upload")
	cmd.Flags().StringVar(&dataPath, "data", "", "resume document JSON used to fill form fields")
	_ = cmd.MarkFlagRequired("resume")
	return cmd
}

func newDetectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "detect <url>",
		Short: "Show which job board a URL belongs to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			board, domain := jobboard.Describe(args[0])
			if domain == "" {
				domain = "-"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", board, domain)
			return nil
		},
	}
}

func newHealthCmd(cfg *config.Config) *cobra.Command {
	var url string
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check that the remote automation service is up",
		RunE: func(cmd *cobra.Command, args []string) error {
			if url == "" {
				url = cfg.RemoteURL
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()
			if err := remote.NewClient(url, 10*time.Second).Health(ctx); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✅ %s is healthy\n", url)
			return nil
		},
	}
	cmd.Flags().StringVar(&url, "url", "", "automation service base URL (defaults to remote_url)")
	return cmd
}

func newRenderCmd(cfg *config.Config) *cobra.Command {
	var dataPath, outPath, templatePath string
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a resume document to PDF",
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readResume(dataPath)
			if err != nil {
				return err
			}

			pm, err := browser.NewPlaywright(browser.Options{Headless: true, UserAgent: cfg.Browser.UserAgent})
			if err != nil {
				return err
			}
			defer pm.Close()

			gen, err := pdf.NewGenerator(pm, templatePath)
			if err != nil {
				return err
			}
			out, err := gen.Generate(doc)
			if err != nil {
				return err
			}
			if err := pdf.SaveToFile(out, outPath); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "📄 wrote %s (%d bytes)\n", outPath, len(out))
			return nil
		},
	}
	cmd.Flags().StringVar(&dataPath, "data", "base-resume.json", "resume document JSON")
	cmd.Flags().StringVar(&outPath, "out", "resume.pdf", "output PDF path")
	cmd.Flags().StringVar(&templatePath, "template", "", "HTML template (built-in layout when empty)")
	return cmd
}
