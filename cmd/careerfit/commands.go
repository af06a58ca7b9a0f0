package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/poiesic/careerfit"
	"github.com/poiesic/careerfit/config"
	"github.com/poiesic/careerfit/core"
	"github.com/poiesic/careerfit/httpapi"
	"github.com/poiesic/careerfit/index"
	"github.com/poiesic/careerfit/mcpserver"
)

func sourceTypeFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "source-type",
		Aliases: []string{"t"},
		Usage:   "Document source (resume, linkedin, company, web)",
		Value:   string(core.SourceCompany),
	}
}

func analyzeCommand() *cli.Command {
	return &cli.Command{
		Name:   "analyze",
		Usage:  "Run a compatibility analysis and store the result",
		Action: analyzeAction,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "resume", Usage: "Resume file (pdf, txt, md, docx)", Required: true},
			&cli.StringFlag{Name: "linkedin", Usage: "Exported LinkedIn profile"},
			&cli.StringFlag{Name: "goals", Usage: "Career goals text", Required: true},
			&cli.StringFlag{Name: "company", Usage: "Company document", Required: true},
			&cli.StringFlag{Name: "jobs", Usage: "Job description text"},
			&cli.StringFlag{Name: "jobs-file", Usage: "Read job descriptions from `FILE`"},
			&cli.StringSliceFlag{Name: "url", Usage: "Company page to research (repeatable)"},
		},
	}
}

func analyzeAction(c *cli.Context) error {
	jobs := c.String("jobs")
	if path := c.String("jobs-file"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading job descriptions: %w", err)
		}
		jobs = string(data)
	}
	req := &careerfit.Request{
		ResumePath:      c.String("resume"),
		LinkedInPath:    c.String("linkedin"),
		CareerGoals:     c.String("goals"),
		CompanyPath:     c.String("company"),
		JobDescriptions: jobs,
		CompanyURLs:     c.StringSlice("url"),
	}
	if err := req.Validate(); err != nil {
		return err
	}

	nav, err := openNavigator(c)
	if err != nil {
		return err
	}
	defer nav.Close()

	stop := startSpinner("analyzing")
	sub, err := nav.Analyze(c.Context, req)
	stop()
	if err != nil {
		return err
	}
	record, err := nav.Get(c.Context, sub.AnalysisID)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Analysis ID: %s\n\n%s\n", sub.AnalysisID, record.Summary)
	return nil
}

func getCommand() *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "Print a stored analysis as JSON",
		ArgsUsage: "ANALYSIS_ID",
		Action: func(c *cli.Context) error {
			id, err := singleArg(c, "analysis id")
			if err != nil {
				return err
			}
			nav, err := openNavigator(c)
			if err != nil {
				return err
			}
			defer nav.Close()

			record, err := nav.Get(c.Context, id)
			if err != nil {
				return err
			}
			return printJSON(c.App.Writer, record)
		},
	}
}

func summaryCommand() *cli.Command {
	return &cli.Command{
		Name:      "summary",
		Usage:     "Print the summary of a stored analysis",
		ArgsUsage: "ANALYSIS_ID",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "json", Usage: "Print the summary as JSON"},
		},
		Action: func(c *cli.Context) error {
			id, err := singleArg(c, "analysis id")
			if err != nil {
				return err
			}
			nav, err := openNavigator(c)
			if err != nil {
				return err
			}
			defer nav.Close()

			if c.Bool("json") {
				summary, err := nav.Summary(c.Context, id)
				if err != nil {
					return err
				}
				return printJSON(c.App.Writer, summary)
			}
			record, err := nav.Get(c.Context, id)
			if err != nil {
				return err
			}
			fmt.Fprintln(c.App.Writer, record.Summary)
			return nil
		},
	}
}

func listCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List the most recent analyses",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Usage: "Maximum analyses to list", Value: 20},
		},
		Action: func(c *cli.Context) error {
			nav, err := openNavigator(c)
			if err != nil {
				return err
			}
			defer nav.Close()

			summaries, err := nav.List(c.Context, c.Int("limit"))
			if err != nil {
				return err
			}
			if len(summaries) == 0 {
				fmt.Fprintln(c.App.Writer, "No analyses stored")
				return nil
			}
			for _, s := range summaries {
				fmt.Fprintf(c.App.Writer, "%s  %s  overall=%3d  confidence=%s\n",
					s.AnalysisID, s.CreatedAt.Format("2006-01-02 15:04"), s.OverallScore, s.Confidence)
			}
			return nil
		},
	}
}

func indexCommand() *cli.Command {
	return &cli.Command{
		Name:      "index",
		Usage:     "Index files or folders for search",
		ArgsUsage: "PATH...",
		Flags:     []cli.Flag{sourceTypeFlag()},
		Action:    indexAction,
	}
}

func indexAction(c *cli.Context) error {
	if c.NArg() == 0 {
		return errors.New("at least one path is required")
	}
	sourceType, err := parseSourceType(c.String("source-type"))
	if err != nil {
		return err
	}

	nav, err := openNavigator(c)
	if err != nil {
		return err
	}
	defer nav.Close()

	var files []string
	for _, root := range c.Args().Slice() {
		found, err := index.Scan(root, nav.Filter())
		if err != nil {
			return fmt.Errorf("scanning %s: %w", root, err)
		}
		for _, f := range found {
			if nav.CanIndex(f) {
				files = append(files, f)
			}
		}
	}
	if len(files) == 0 {
		fmt.Fprintln(c.App.ErrWriter, "No indexable files found")
		return nil
	}

	progress := newFileProgress(len(files))
	var failed int
	for _, f := range files {
		hash, err := nav.Index(c.Context, f, sourceType)
		progress.Increment()
		if err != nil {
			failed++
			fmt.Fprintf(c.App.ErrWriter, "%s: %v\n", f, err)
			continue
		}
		fmt.Fprintf(c.App.Writer, "%s  %s\n", hash, f)
	}
	progress.Finish()

	if failed > 0 {
		return fmt.Errorf("%d of %d files failed to index", failed, len(files))
	}
	return nil
}

func searchCommand() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Rank the chunks of an indexed document against a query",
		ArgsUsage: "QUERY...",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "hash", Usage: "Content hash printed by index", Required: true},
			&cli.IntFlag{Name: "top-k", Aliases: []string{"k"}, Usage: "Results to return (default from config)"},
			&cli.BoolFlag{Name: "explain", Usage: "Print each search step to stderr"},
		},
		Action: func(c *cli.Context) error {
			query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
			if query == "" {
				return errors.New("a query is required")
			}
			nav, err := openNavigator(c)
			if err != nil {
				return err
			}
			defer nav.Close()

			var monitor *explainMonitor
			if c.Bool("explain") {
				monitor = &explainMonitor{w: c.App.ErrWriter}
			}
			results, err := nav.SearchWithMonitor(c.Context, query, core.ContentHash(c.String("hash")), c.Int("top-k"), monitor.orNil())
			if err != nil {
				return err
			}

			fmt.Fprintf(c.App.Writer, "Found %d hits\n", len(results))
			for i, hit := range results {
				fmt.Fprintf(c.App.Writer, "%d: [%0.3f] (chunk %d) %s\n", i, hit.Score, hit.Ordinal, oneLine(hit.Text))
			}
			return nil
		},
	}
}

func watchCommand() *cli.Command {
	return &cli.Command{
		Name:      "watch",
		Usage:     "Index files as they are written under a folder",
		ArgsUsage: "DIR",
		Flags:     []cli.Flag{sourceTypeFlag()},
		Action: func(c *cli.Context) error {
			root, err := singleArg(c, "directory")
			if err != nil {
				return err
			}
			sourceType, err := parseSourceType(c.String("source-type"))
			if err != nil {
				return err
			}
			nav, err := openNavigator(c)
			if err != nil {
				return err
			}
			defer nav.Close()

			w, err := nav.NewWatcher(root, sourceType)
			if err != nil {
				return err
			}
			defer w.Close()

			ctx, stop := signalContext(c.Context)
			defer stop()
			fmt.Fprintf(c.App.ErrWriter, "Watching %s (Ctrl-C to stop)\n", root)
			return w.Run(ctx, func(path string, hash core.ContentHash, err error) {
				if err != nil {
					fmt.Fprintf(c.App.ErrWriter, "%s: %v\n", path, err)
					return
				}
				fmt.Fprintf(c.App.Writer, "%s  %s\n", hash, path)
			})
		},
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the HTTP API, with MCP mounted at /mcp",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Usage: "Listen address (default from config)"},
			&cli.BoolFlag{Name: "no-mcp", Usage: "Do not mount the MCP endpoint"},
		},
		Action: func(c *cli.Context) error {
			nav, err := openNavigator(c)
			if err != nil {
				return err
			}
			defer nav.Close()

			cfg := nav.Config()
			addr := c.String("addr")
			if addr == "" {
				addr = cfg.Server.Addr
			}

			opts := []httpapi.Option{httpapi.WithMaxUpload(int64(cfg.Server.MaxUploadMB) << 20)}
			if !c.Bool("no-mcp") {
				mcpServer, err := mcpserver.NewServer(nav)
				if err != nil {
					return err
				}
				opts = append(opts, httpapi.WithMount("/mcp", mcpServer.Handler()))
			}
			server, err := httpapi.NewServer(nav, opts...)
			if err != nil {
				return err
			}

			ctx, stop := signalContext(c.Context)
			defer stop()
			return server.ListenAndServe(ctx, addr)
		},
	}
}

func mcpCommand() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Serve MCP tools over stdio",
		Action: func(c *cli.Context) error {
			nav, err := openNavigator(c)
			if err != nil {
				return err
			}
			defer nav.Close()

			server, err := mcpserver.NewServer(nav)
			if err != nil {
				return err
			}
			ctx, stop := signalContext(c.Context)
			defer stop()
			return server.Run(ctx)
		},
	}
}

func initConfigCommand() *cli.Command {
	return &cli.Command{
		Name:      "init-config",
		Usage:     "Write the effective configuration to a file",
		ArgsUsage: "PATH",
		Action: func(c *cli.Context) error {
			path, err := singleArg(c, "path")
			if err != nil {
				return err
			}
			cfg, err := configFrom(c)
			if err != nil {
				return err
			}
			if err := config.Save(path, cfg); err != nil {
				return err
			}
			fmt.Fprintf(c.App.ErrWriter, "Wrote %s\n", path)
			return nil
		},
	}
}

func singleArg(c *cli.Context, name string) (string, error) {
	if c.NArg() != 1 {
		return "", fmt.Errorf("exactly one %s is required", name)
	}
	return c.Args().First(), nil
}

func parseSourceType(raw string) (core.SourceType, error) {
	switch st := core.SourceType(strings.ToLower(strings.TrimSpace(raw))); st {
	case core.SourceResume, core.SourceLinkedIn, core.SourceCompany, core.SourceWeb:
		return st, nil
	default:
		return "", fmt.Errorf("invalid source type %q: must be one of resume, linkedin, company, web", raw)
	}
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func oneLine(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > 100 {
		return string(r[:100]) + "..."
	}
	return s
}
