package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/allenhsieh/archivebatcheditor-sub001/internal/archiveapi"
	"github.com/allenhsieh/archivebatcheditor-sub001/internal/recordset"
)

// recordSource selects where a command reads its records from. Exactly one
// of items, query, or mine must be set.
type recordSource struct {
	items   string
	query   string
	mine    bool
	refresh bool
	only    []string
}

func (s *recordSource) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&s.items, "items", "", "Record list file (.json, .yaml)")
	cmd.Flags().StringVarP(&s.query, "query", "q", "", "Archive search query")
	cmd.Flags().BoolVar(&s.mine, "mine", false, "Use the authenticated user's uploads")
	cmd.Flags().BoolVar(&s.refresh, "refresh", false, "Bypass server-side caches")
	cmd.Flags().StringSliceVar(&s.only, "only", nil, "Restrict to these identifiers")
}

type itemsAPI interface {
	Search(ctx context.Context, query string) (*archiveapi.ItemsResponse, error)
	UserItems(ctx context.Context, refresh bool) (*archiveapi.ItemsResponse, error)
}

func (s *recordSource) load(ctx context.Context, api itemsAPI) ([]archiveapi.Record, error) {
	chosen := 0
	for _, set := range []bool{s.items != "", strings.TrimSpace(s.query) != "", s.mine} {
		if set {
			chosen++
		}
	}
	if chosen != 1 {
		return nil, errors.New("choose exactly one record source: --items, --query, or --mine")
	}

	var records []archiveapi.Record
	switch {
	case s.items != "":
		loaded, err := recordset.Load(s.items)
		if err != nil {
			return nil, err
		}
		records = loaded
	case s.mine:
		resp, err := api.UserItems(ctx, s.refresh)
		if err != nil {
			return nil, fmt.Errorf("list uploads: %w", err)
		}
		records = resp.Items
	default:
		resp, err := api.Search(ctx, strings.TrimSpace(s.query))
		if err != nil {
			return nil, fmt.Errorf("search: %w", err)
		}
		records = resp.Items
	}
	return filterRecords(records, s.only), nil
}

func filterRecords(records []archiveapi.Record, only []string) []archiveapi.Record {
	if len(only) == 0 {
		return records
	}
	keep := make(map[string]bool, len(only))
	for _, id := range only {
		keep[strings.TrimSpace(id)] = true
	}
	var out []archiveapi.Record
	for _, r := range records {
		if keep[r.Identifier] {
			out = append(out, r)
		}
	}
	return out
}
