package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yuriy-kovalchuk/sakuracloud-dns/internal/config"
	"github.com/yuriy-kovalchuk/sakuracloud-dns/internal/dns"
)

// zoneChecker is implemented by providers that can tell a missing zone from
// an empty one.
type zoneChecker interface {
	ZoneExists(ctx context.Context, zone string) (bool, error)
}

func newZonesCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "zones",
		Short: "List the zones hosted by the provider",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			zones, err := a.provider.ListZones(cmd.Context())
			if err != nil {
				return err
			}
			for _, z := range zones {
				fmt.Fprintln(cmd.OutOrStdout(), z)
			}
			return nil
		},
	}
}

func newDumpCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "dump <zone>",
		Short: "Print the records of a zone as a zone file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			zone := dns.Fqdn(args[0])
			if zc, ok := a.provider.(zoneChecker); ok {
				exists, err := zc.ZoneExists(cmd.Context(), zone)
				if err != nil {
					return err
				}
				if !exists {
					return fmt.Errorf("%w: %s", dns.ErrZoneNotFound, zone)
				}
			}
			records, err := a.provider.ListRecords(cmd.Context(), zone)
			if err != nil {
				return err
			}
			out, err := config.MarshalZoneFile(zone, records)
			if err != nil {
				return fmt.Errorf("rendering zone file: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
}

func newSyncCommand(a *app) *cobra.Command {
	var (
		file   string
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Make a zone match a zone file",
		Long: "Compare the zone file with the records the provider holds, print the changes " +
			"and apply them unless --dry-run is set.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			zf, err := config.LoadZoneFile(file)
			if err != nil {
				return err
			}

			existing, err := a.provider.ListRecords(cmd.Context(), zf.Zone)
			if err != nil {
				return err
			}

			var desired []dns.Record
			for _, r := range zf.Records {
				if r.IsRootNS() {
					a.log.Info("ignoring root NS record in zone file", "zone", zf.Zone)
					continue
				}
				if !a.provider.Supports(r.Type) {
					return &dns.UnsupportedRecordError{Name: r.Name, Type: r.Type}
				}
				desired = append(desired, r)
			}

			changes := dns.Diff(existing, desired)
			out := cmd.OutOrStdout()
			printChanges(out, zf.Zone, changes)
			if dryRun || len(changes) == 0 {
				return nil
			}

			err = a.provider.Apply(cmd.Context(), zf.Zone, changes)
			var applyErr *dns.ApplyError
			if errors.As(err, &applyErr) {
				fmt.Fprintf(out, "%d of %d change(s) applied before the failure\n", len(applyErr.Applied), len(changes))
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%d change(s) applied\n", len(changes))
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "zone file to apply")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the changes without applying them")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func printChanges(w io.Writer, zone string, changes []dns.Change) {
	if len(changes) == 0 {
		fmt.Fprintf(w, "%s: no changes\n", zone)
		return
	}
	fmt.Fprintf(w, "%s: %d change(s)\n", zone, len(changes))
	for _, c := range changes {
		r := c.Record()
		name := r.Name
		if name == "" {
			name = "@"
		}
		fmt.Fprintf(w, "  %-6s %-5s %s ttl=%d %s\n", c.Action, r.Type, name, r.TTL, describeValues(r))
	}
}

func describeValues(r dns.Record) string {
	parts := make([]string, 0, len(r.Values))
	for _, v := range r.Values {
		rdata, err := dns.FormatRData(r.Type, v)
		if err != nil {
			rdata = v.Target
		}
		parts = append(parts, rdata)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
