// Command lead-import loads a CSV or XLSX file into one organization's leads
// using the same mapping, validation and duplicate rules as the upload API.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/adapters"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/events"
	importservice "github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/imports/service"
	importtransport "github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/imports/transport"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/leads"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/shared/access"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/team"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/config"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/db"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/logger"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/validator"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

type options struct {
	file           string
	orgID          string
	memberID       string
	mapping        map[string]string
	status         string
	source         string
	assignTo       string
	keepDuplicates bool
	dryRun         bool
}

func main() {
	opts := &options{}
	rootCmd := &cobra.Command{
		Use:   "lead-import --file leads.xlsx --org <org-id> --member <member-id>",
		Short: "Import leads from a CSV or XLSX file",
		Long: `Import leads from a CSV or XLSX file into one organization.

Columns are matched to lead fields by header name. Override the guess with
--map field=Header, for example --map email="E-mail address".
The import runs as the given team member; associates own every row they import.

Examples:
  # Show the detected mapping and the first rows
  lead-import --file leads.csv --org <org> --member <member> --dry-run

  # Import, assigning rows without an owner column to one rep
  lead-import --file leads.xlsx --org <org> --member <member> --assign-to <member>`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), opts)
		},
	}

	flags := rootCmd.Flags()
	flags.StringVarP(&opts.file, "file", "f", "", "CSV or XLSX file to import")
	flags.StringVar(&opts.orgID, "org", "", "Organization ID")
	flags.StringVar(&opts.memberID, "member", "", "Team member ID the import runs as")
	flags.StringToStringVar(&opts.mapping, "map", nil, "Column override as field=Header (repeatable)")
	flags.StringVar(&opts.status, "status", "", "Status for rows without a status column")
	flags.StringVar(&opts.source, "source", "", "Source for rows without a source column")
	flags.StringVar(&opts.assignTo, "assign-to", "", "Member ID for rows without an owner column")
	flags.BoolVar(&opts.keepDuplicates, "keep-duplicates", false, "Import rows that match existing leads")
	flags.BoolVar(&opts.dryRun, "dry-run", false, "Print the preview without importing")
	_ = rootCmd.MarkFlagRequired("file")
	_ = rootCmd.MarkFlagRequired("org")
	_ = rootCmd.MarkFlagRequired("member")

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts *options) error {
	orgID, err := uuid.Parse(opts.orgID)
	if err != nil {
		return fmt.Errorf("invalid --org: %w", err)
	}
	memberID, err := uuid.Parse(opts.memberID)
	if err != nil {
		return fmt.Errorf("invalid --member: %w", err)
	}
	req := importtransport.CommitRequest{
		Mapping:       opts.mapping,
		DefaultStatus: opts.status,
		DefaultSource: opts.source,
	}
	if opts.keepDuplicates {
		skip := false
		req.SkipDuplicates = &skip
	}
	if opts.assignTo != "" {
		id, err := uuid.Parse(opts.assignTo)
		if err != nil {
			return fmt.Errorf("invalid --assign-to: %w", err)
		}
		req.AssignTo = &id
	}

	info, err := os.Stat(opts.file)
	if err != nil {
		return err
	}
	if info.Size() > importservice.MaxUploadBytes {
		return fmt.Errorf("%s is larger than %d bytes", opts.file, importservice.MaxUploadBytes)
	}
	data, err := os.ReadFile(opts.file)
	if err != nil {
		return err
	}
	upload := importservice.Upload{FileName: filepath.Base(opts.file), Data: data}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg.Env)

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	bus := events.NewInMemoryBus(log)
	val := validator.New()
	members := adapters.NewTeamMemberDirectory(team.NewModule(pool, bus, val).Service())
	mgmt := leads.NewModule(pool, bus, val, members, log).ManagementService()
	svc := importservice.New(mgmt, members, nil, "", bus, log)

	if opts.dryRun {
		preview, err := svc.Preview(ctx, upload)
		if err != nil {
			return err
		}
		return printJSON(preview)
	}

	contact, err := members.Contact(ctx, orgID, memberID)
	if err != nil {
		return fmt.Errorf("load member: %w", err)
	}
	if !contact.IsActive {
		return fmt.Errorf("member %s is not active", memberID)
	}
	actor := access.Actor{OrgID: orgID, MemberID: memberID, Role: contact.Role}

	result, err := svc.Commit(ctx, actor, upload, req)
	if err != nil {
		return err
	}
	log.Info("lead import finished",
		"file", upload.FileName,
		"organizationId", orgID,
		"created", result.Created,
		"skippedDuplicates", result.SkippedDuplicates,
		"failed", len(result.Failed),
	)
	return printJSON(result)
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
