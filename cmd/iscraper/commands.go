package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/iscraper-project/iscraper-go/internal/config"
	"github.com/iscraper-project/iscraper-go/internal/logger"
	"github.com/iscraper-project/iscraper-go/pkg/iscraper"
)

// cli carries the global flags shared by every subcommand.
type cli struct {
	stdout  io.Writer
	syncLog func() error

	apiKey  string
	baseURL string
	timeout time.Duration
	compact bool
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	c := &cli{stdout: stdout, syncLog: logger.Close}
	return c.rootCmd(stderr)
}

func (c *cli) rootCmd(stderr io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "iscraper",
		Short:         "Query the iScraper LinkedIn data API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(c.stdout)
	root.SetErr(stderr)

	flags := root.PersistentFlags()
	flags.StringVar(&c.apiKey, "api-key", "", "API key (defaults to $ISCRAPER_API_KEY)")
	flags.StringVar(&c.baseURL, "base-url", "", "API endpoint (defaults to $ISCRAPER_BASE_URL)")
	flags.DurationVar(&c.timeout, "timeout", 0, "per-request timeout (defaults to $HTTP_TIMEOUT_SECONDS)")
	flags.BoolVar(&c.compact, "compact", false, "print JSON on a single line")

	root.AddCommand(
		c.profileCmd(),
		c.employeesCmd(),
		c.searchCmd(),
		c.jobsCmd(),
		c.jobCmd(),
		c.locationsCmd(),
		c.parseIDCmd(),
	)
	return root
}

// client builds an API client from config with flag overrides applied.
func (c *cli) client() (*iscraper.Client, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if c.apiKey != "" {
		cfg.APIKey = c.apiKey
	}
	if c.baseURL != "" {
		cfg.BaseURL = c.baseURL
	}
	if c.timeout > 0 {
		cfg.HTTPTimeout = c.timeout
	}
	if err := cfg.RequireAPIKey(); err != nil {
		return nil, err
	}

	log, err := logger.Init(cfg)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return iscraper.New(cfg.APIKey,
		iscraper.WithBaseURL(cfg.BaseURL),
		iscraper.WithTimeout(cfg.HTTPTimeout),
		iscraper.WithLogger(log),
	)
}

// call runs fn against a fresh client and prints its result.
func (c *cli) call(fn func(*iscraper.Client) (any, error)) error {
	defer func() { _ = c.syncLog() }()

	client, err := c.client()
	if err != nil {
		return err
	}
	defer client.Close()

	out, err := fn(client)
	if err != nil {
		return err
	}
	return c.print(out)
}

func (c *cli) print(v any) error {
	enc := json.NewEncoder(c.stdout)
	if !c.compact {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

func (c *cli) profileCmd() *cobra.Command {
	var opts iscraper.ProfileDetailsOptions
	cmd := &cobra.Command{
		Use:   "profile <profile-url>",
		Short: "Get details for a personal or company profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.call(func(cl *iscraper.Client) (any, error) {
				return cl.ProfileDetails(cmd.Context(), args[0], opts)
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.ProfileType, "type", iscraper.ProfileTypePersonal, "profile type: personal or company")
	f.BoolVar(&opts.ContactInfo, "contact-info", false, "include contact info")
	f.BoolVar(&opts.Recommendations, "recommendations", false, "include recommendations")
	f.BoolVar(&opts.RelatedProfiles, "related-profiles", false, "include related profiles")
	return cmd
}

func (c *cli) employeesCmd() *cobra.Command {
	var opts iscraper.PageOptions
	cmd := &cobra.Command{
		Use:   "employees <company-url>",
		Short: "List one page of a company's employees",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.call(func(cl *iscraper.Client) (any, error) {
				return cl.CompanyEmployees(cmd.Context(), args[0], opts)
			})
		},
	}
	cmd.Flags().IntVar(&opts.PerPage, "per-page", iscraper.DefaultPerPage, "results per page")
	cmd.Flags().IntVar(&opts.Offset, "offset", 0, "pagination offset")
	return cmd
}

func (c *cli) searchCmd() *cobra.Command {
	var (
		opts     iscraper.SearchOptions
		location string
		size     string
	)
	cmd := &cobra.Command{
		Use:   "search <keyword>",
		Short: "Search LinkedIn people or companies",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("location") {
				opts.Location = iscraper.String(location)
			}
			if cmd.Flags().Changed("size") {
				opts.Size = iscraper.String(size)
			}
			return c.call(func(cl *iscraper.Client) (any, error) {
				return cl.SearchResults(cmd.Context(), args[0], opts)
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.SearchType, "type", iscraper.SearchTypePeople, "search type: people or companies")
	f.StringVar(&location, "location", "", "location filter (see `iscraper locations`)")
	f.StringVar(&size, "size", "", "company size filter")
	f.IntVar(&opts.PerPage, "per-page", iscraper.DefaultPerPage, "results per page")
	f.IntVar(&opts.Offset, "offset", 0, "pagination offset")
	return cmd
}

func (c *cli) jobsCmd() *cobra.Command {
	var opts iscraper.JobsOptions
	cmd := &cobra.Command{
		Use:   "jobs <company-id>",
		Short: "List one page of a company's job postings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.call(func(cl *iscraper.Client) (any, error) {
				return cl.GetJobs(cmd.Context(), args[0], opts)
			})
		},
	}
	cmd.Flags().IntVar(&opts.Offset, "offset", 0, "pagination offset")
	cmd.Flags().IntVar(&opts.GeoID, "geo-id", 0, "LinkedIn geo id filter")
	return cmd
}

func (c *cli) jobCmd() *cobra.Command {
	var html bool
	cmd := &cobra.Command{
		Use:   "job <job-id>",
		Short: "Get details for a job posting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.call(func(cl *iscraper.Client) (any, error) {
				return cl.JobDetails(cmd.Context(), args[0], html)
			})
		},
	}
	cmd.Flags().BoolVar(&html, "html", false, "return the description as HTML")
	return cmd
}

func (c *cli) locationsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "locations",
		Short: "List locations supported by search",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.call(func(cl *iscraper.Client) (any, error) {
				return cl.GetLocations(cmd.Context())
			})
		},
	}
}

func (c *cli) parseIDCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse-id <profile-url>",
		Short: "Print the profile id a URL resolves to (offline)",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			id, err := iscraper.ParseID(args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(c.stdout, strconv.Quote(id))
			return err
		},
	}
}
