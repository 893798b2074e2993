package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kalambet/jobboard/internal/config"
	"github.com/kalambet/jobboard/internal/crud"
	"github.com/kalambet/jobboard/internal/entity"
)

// --- check ---

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Report id and field health of every collection",
	Long: `Read every collection directly from storage and report record counts,
the highest id, duplicate or unusable ids, and records that still hold an
API-side field alias. Exits non-zero when any collection has problems.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		setupLogging(cfg.Log)

		svc, repo, err := openService(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer closeRepo(repo)

		if !asJSON {
			printStep("Checking %d collections (%s backend)...", len(svc.Entities()), cfg.Storage.Backend)
		}
		reports, err := svc.Check(cmd.Context())
		if err != nil {
			return err
		}

		if asJSON {
			if err := printJSON(os.Stdout, reports); err != nil {
				return err
			}
		} else {
			printCheckReports(reports)
		}

		bad := 0
		for _, r := range reports {
			if !r.OK() {
				bad++
			}
		}
		if bad > 0 {
			return fmt.Errorf("%d collection(s) need attention", bad)
		}
		if !asJSON {
			printSuccess("All %d collections OK", len(reports))
		}
		return nil
	},
}

func printCheckReports(reports []crud.CollectionReport) {
	for _, r := range reports {
		state := colorize(colorGreen, "ok")
		if !r.OK() {
			state = colorize(colorRed, "problems")
		}
		printStatus(r.Entity, "%s (%s, %d records, max id %d)", state, r.Collection, r.Records, r.MaxID)
		if len(r.DuplicateIDs) > 0 {
			printWarning("%s: duplicate ids %v", r.Entity, r.DuplicateIDs)
		}
		if r.InvalidIDs > 0 {
			printWarning("%s: %d record(s) without a usable id", r.Entity, r.InvalidIDs)
		}
		if r.Aliases > 0 {
			printWarning("%s: %d record(s) store API field names", r.Entity, r.Aliases)
		}
	}
}

func init() {
	checkCmd.Flags().Bool("json", false, "print the report as JSON")
}

// --- entities ---

var entitiesCmd = &cobra.Command{
	Use:   "entities",
	Short: "List registered entities and their field mapping",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		reg, err := buildRegistry(cfg)
		if err != nil {
			return err
		}

		for _, e := range reg.All() {
			fmt.Printf("%s  %s\n", colorize(colorBold, e.Name), e.Collection)
			for _, line := range describeEntity(e) {
				fmt.Printf("    %s\n", line)
			}
		}
		return nil
	},
}

func describeEntity(e entity.Entity) []string {
	var lines []string
	for _, r := range e.Rules {
		lines = append(lines, fmt.Sprintf("%s <-> %s", r.External, r.Internal))
	}
	for _, d := range e.Defaults {
		lines = append(lines, fmt.Sprintf("%s default, e.g. %v", d.Field, d.Value(1)))
	}
	return lines
}

// --- records ---

var recordsCmd = &cobra.Command{
	Use:   "records",
	Short: "List, read and modify records on the running server",
}

var recordsListCmd = &cobra.Command{
	Use:   "list <entity>",
	Short: "List every record of an entity",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		records, err := listRecords(cmd.Context(), client, args[0])
		if err != nil {
			return err
		}
		return printJSON(os.Stdout, records)
	},
}

var recordsGetCmd = &cobra.Command{
	Use:   "get <entity> <id>",
	Short: "Show one record",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseRecordID(args[1])
		if err != nil {
			return err
		}
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		rec, err := getRecord(cmd.Context(), client, args[0], id)
		if err != nil {
			return err
		}
		return printJSON(os.Stdout, rec)
	},
}

var recordsCreateCmd = &cobra.Command{
	Use:   "create <entity>",
	Short: "Create a record",
	Long: `Create a record. The server assigns the id.

Examples:
  jobboard records create jobs --data '{"title":"Go developer","logo_url":"/img/go.png"}'
  jobboard records create news --file ./post.json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		payload, err := readPayload(cmd)
		if err != nil {
			return err
		}
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		result, err := createRecord(cmd.Context(), client, args[0], payload)
		if err != nil {
			return err
		}
		printSuccess("%s (id %v)", result.Message, result.Data["id"])
		return printJSON(os.Stdout, result.Data)
	},
}

var recordsUpdateCmd = &cobra.Command{
	Use:   "update <entity> <id>",
	Short: "Merge fields into a record",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseRecordID(args[1])
		if err != nil {
			return err
		}
		payload, err := readPayload(cmd)
		if err != nil {
			return err
		}
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		result, err := updateRecord(cmd.Context(), client, args[0], id, payload)
		if err != nil {
			return err
		}
		printSuccess("%s", result.Message)
		return printJSON(os.Stdout, result.Data)
	},
}

var recordsDeleteCmd = &cobra.Command{
	Use:   "delete <entity> <id>",
	Short: "Delete a record",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseRecordID(args[1])
		if err != nil {
			return err
		}
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		msg, err := deleteRecord(cmd.Context(), client, args[0], id)
		if err != nil {
			return err
		}
		printSuccess("%s", msg)
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{recordsCreateCmd, recordsUpdateCmd} {
		c.Flags().String("data", "", "record fields as a JSON object")
		c.Flags().String("file", "", "path to a file holding the JSON object")
	}
	recordsCmd.AddCommand(recordsListCmd)
	recordsCmd.AddCommand(recordsGetCmd)
	recordsCmd.AddCommand(recordsCreateCmd)
	recordsCmd.AddCommand(recordsUpdateCmd)
	recordsCmd.AddCommand(recordsDeleteCmd)
}

type mutationResult struct {
	Message string         `json:"message"`
	Data    map[string]any `json:"data"`
}

func recordsPath(entityName string) string {
	return "/api/" + url.PathEscape(entityName)
}

func recordPath(entityName string, id int64) string {
	return recordsPath(entityName) + "/" + strconv.FormatInt(id, 10)
}

func parseRecordID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid record id %q", s)
	}
	return id, nil
}

// readPayload returns the JSON object given by --data or --file.
func readPayload(cmd *cobra.Command) (map[string]any, error) {
	data, _ := cmd.Flags().GetString("data")
	file, _ := cmd.Flags().GetString("file")

	var raw []byte
	switch {
	case data != "" && file != "":
		return nil, fmt.Errorf("use only one of --data or --file")
	case data != "":
		raw = []byte(data)
	case file != "":
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("reading file: %w", err)
		}
		raw = b
	default:
		return nil, fmt.Errorf("one of --data or --file is required")
	}

	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("payload is not valid JSON: %w", err)
	}
	if payload == nil {
		return nil, fmt.Errorf("payload must be a JSON object")
	}
	return payload, nil
}

func listRecords(ctx context.Context, c *apiClient, entityName string) ([]map[string]any, error) {
	resp, err := c.get(ctx, recordsPath(entityName))
	if err != nil {
		return nil, err
	}
	var records []map[string]any
	if err := decodeJSON(resp, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func getRecord(ctx context.Context, c *apiClient, entityName string, id int64) (map[string]any, error) {
	resp, err := c.get(ctx, recordPath(entityName, id))
	if err != nil {
		return nil, err
	}
	var rec map[string]any
	if err := decodeJSON(resp, &rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func createRecord(ctx context.Context, c *apiClient, entityName string, payload map[string]any) (mutationResult, error) {
	resp, err := c.post(ctx, recordsPath(entityName), payload)
	if err != nil {
		return mutationResult{}, err
	}
	var result mutationResult
	err = decodeJSON(resp, &result)
	return result, err
}

func updateRecord(ctx context.Context, c *apiClient, entityName string, id int64, payload map[string]any) (mutationResult, error) {
	resp, err := c.put(ctx, recordPath(entityName, id), payload)
	if err != nil {
		return mutationResult{}, err
	}
	var result mutationResult
	err = decodeJSON(resp, &result)
	return result, err
}

func deleteRecord(ctx context.Context, c *apiClient, entityName string, id int64) (string, error) {
	resp, err := c.delete(ctx, recordPath(entityName, id))
	if err != nil {
		return "", err
	}
	var result mutationResult
	if err := decodeJSON(resp, &result); err != nil {
		return "", err
	}
	return result.Message, nil
}

// --- login ---

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Check credentials against the running server",
	RunE: func(cmd *cobra.Command, args []string) error {
		username, _ := cmd.Flags().GetString("username")
		password, _ := cmd.Flags().GetString("password")
		if username == "" {
			return fmt.Errorf("--username is required")
		}
		if password == "" {
			password = os.Getenv("JOBBOARD_LOGIN_PASSWORD")
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		result, err := login(cmd.Context(), client, username, password)
		if err != nil {
			return err
		}
		printSuccess("%s as %s", result.Message, result.Username)
		fmt.Println(result.Token)
		return nil
	},
}

func init() {
	loginCmd.Flags().String("username", "", "login username")
	loginCmd.Flags().String("password", "", "login password (or JOBBOARD_LOGIN_PASSWORD)")
}

type loginResult struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	Token    string `json:"token"`
	Username string `json:"username"`
}

func login(ctx context.Context, c *apiClient, username, password string) (loginResult, error) {
	resp, err := c.post(ctx, "/api/login", map[string]string{
		"username": username,
		"password": password,
	})
	if err != nil {
		return loginResult{}, err
	}
	var result loginResult
	err = decodeJSON(resp, &result)
	return result, err
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		for _, k := range config.ShowAll(cfg) {
			fmt.Printf("  %s = %s\n", colorize(colorBold, k.Key), k.Value)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			return fmt.Errorf("%w (valid keys: %s)", err, strings.Join(config.ValidKeys(), ", "))
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
