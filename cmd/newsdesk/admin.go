package main

import (
	"bufio"
	"fmt"
	"io"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"newsdesk/pkg/crud"
	"newsdesk/pkg/views"
)

type adminFlags struct {
	email    string
	password string
	page     int
	limit    int
	sort     string
	search   string
	filters  []string
	yes      bool
}

func newAdminCmd() *cobra.Command {
	f := &adminFlags{}
	cmd := &cobra.Command{
		Use:   "admin <entity> list|create|update|delete [args]",
		Short: "Manage news records through the admin API",
		Long: `Drives the admin screens against a running server.

  newsdesk admin categories list --sort name
  newsdesk admin categories create name=Maritime slug=maritime
  newsdesk admin posts update <id> status=published
  newsdesk admin tags delete <id>

Entities: apps, announcements, categories, comments, departments, posts,
tags, users.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdmin(cmd, f, args)
		},
	}
	cmd.Flags().StringVar(&f.email, "email", "", "login email (default: client.email, then admin.email)")
	cmd.Flags().StringVar(&f.password, "password", "", "login password (default: client.password, then admin.password)")
	cmd.Flags().IntVar(&f.page, "page", 0, "list page")
	cmd.Flags().IntVar(&f.limit, "limit", 0, "list page size")
	cmd.Flags().StringVar(&f.sort, "sort", "", "list sort, e.g. -created_at,name")
	cmd.Flags().StringVarP(&f.search, "query", "q", "", "list search text")
	cmd.Flags().StringArrayVar(&f.filters, "filter", nil, "list filter field=value or field.op=value, repeatable")
	cmd.Flags().BoolVarP(&f.yes, "yes", "y", false, "delete without asking")
	return cmd
}

func runAdmin(cmd *cobra.Command, f *adminFlags, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	client, err := crud.NewClient(strings.TrimRight(cfg.Client.BaseURL, "/")+"/api", crud.WithTimeout(cfg.Client.Timeout))
	if err != nil {
		return err
	}
	if err := client.Login(ctx, firstOf(f.email, cfg.Client.Email, cfg.Admin.Email), firstOf(f.password, cfg.Client.Password, cfg.Admin.Password)); err != nil {
		return fmt.Errorf("login: %w", err)
	}

	cache := crud.NewCache(crud.WithStaleAfter(cfg.Client.StaleAfter))
	notify := crud.LogNotifier{Logger: logger.WithField("component", "admin")}
	screens := views.NewScreens(crud.NewContainer(client, cache, notify), out)

	entity, action, rest := args[0], args[1], args[2:]
	screen, ok := screens[entity]
	if !ok {
		return fmt.Errorf("unknown entity %q (known: %s)", entity, strings.Join(sortedKeys(screens), ", "))
	}

	switch action {
	case "list":
		params, err := f.listParams()
		if err != nil {
			return err
		}
		return screen.List(ctx, params)
	case "create":
		input, err := views.ParseAssignments(rest)
		if err != nil {
			return err
		}
		return screen.CreateFrom(ctx, input)
	case "update":
		if len(rest) < 1 {
			return fmt.Errorf("update needs an id")
		}
		input, err := views.ParseAssignments(rest[1:])
		if err != nil {
			return err
		}
		return screen.UpdateFrom(ctx, rest[0], input)
	case "delete":
		if len(rest) != 1 {
			return fmt.Errorf("delete needs exactly one id")
		}
		confirm := promptConfirm(cmd.InOrStdin(), out)
		if f.yes {
			confirm = nil
		}
		return screen.DeleteByID(ctx, rest[0], confirm)
	case "fields":
		fmt.Fprintln(out, strings.Join(screen.FieldNames(), "\n"))
		return nil
	default:
		return fmt.Errorf("unknown action %q (want list, create, update, delete or fields)", action)
	}
}

// listParams maps flags onto the server's query parameters.
func (f *adminFlags) listParams() (url.Values, error) {
	params := url.Values{}
	if f.page > 0 {
		params.Set("page", strconv.Itoa(f.page))
	}
	if f.limit > 0 {
		params.Set("limit", strconv.Itoa(f.limit))
	}
	if f.sort != "" {
		params.Set("sort", f.sort)
	}
	if f.search != "" {
		params.Set("q", f.search)
	}
	for _, raw := range f.filters {
		key, value, ok := strings.Cut(raw, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("expected field=value or field.op=value, got %q", raw)
		}
		params.Add("filter["+key+"]", value)
	}
	return params, nil
}

func promptConfirm(in io.Reader, out io.Writer) views.Confirm {
	reader := bufio.NewReader(in)
	return func(summary string) bool {
		fmt.Fprintf(out, "Delete %s? [y/N] ", summary)
		line, _ := reader.ReadString('\n')
		answer := strings.ToLower(strings.TrimSpace(line))
		return answer == "y" || answer == "yes"
	}
}

func firstOf(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
