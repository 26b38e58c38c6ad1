package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"apiguard/internal/analyzer"
	"apiguard/internal/sdk"
)

var apiFlag string

var guardCmd = &cobra.Command{
	Use:   "guard FILE:LINE[:COL]",
	Short: "Report whether the code at a position is protected by a version check",
	Long: `guard parses one Java file, selects the node at the given position and
prints whether it sits inside a version-check conditional, whether an
earlier early-exit check protects it, and the combined answer.

Without a column the first statement starting on the line is used.

Examples:
  apiguard guard MainActivity.java:42 --api 26
  apiguard guard MainActivity.java:42:17 --api O`,
	Args: cobra.ExactArgs(1),
	RunE: runGuard,
}

func init() {
	guardCmd.Flags().StringVar(&apiFlag, "api", "", "API level, as a number or VERSION_CODES name")
	_ = guardCmd.MarkFlagRequired("api")
	rootCmd.AddCommand(guardCmd)
}

func runGuard(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	path, line, col, err := parseLocation(args[0])
	if err != nil {
		return err
	}

	engine := analyzer.NewAnalyzerWithConfig(cfg)
	actx := engine.Context()
	api, err := parseAPI(actx.Versions, apiFlag)
	if err != nil {
		return err
	}

	file, err := engine.Parser().ParseFile(cmd.Context(), path)
	if err != nil {
		return err
	}
	point := file.NodeAt(line, col)
	if !point.IsValid() {
		return fmt.Errorf("no code at %s", args[0])
	}

	t := file.Tree
	within := actx.Guards.IsWithinVersionGuardConditional(t, point, api)
	preceded := actx.Guards.IsPrecededByVersionGuardExit(t, point, api)

	n := t.Node(point)
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s:%d:%d %s `%s`\n", path, n.Pos.Line, n.Pos.Column,
		strings.ToLower(n.Kind.String()), firstLine(file.Text(point)))
	fmt.Fprintf(out, "   within version check at API %d:   %s\n", api, yesNo(within))
	fmt.Fprintf(out, "   preceded by version exit at API %d: %s\n", api, yesNo(preceded))
	fmt.Fprintf(out, "   guarded: %s\n", yesNo(within || preceded))
	return nil
}

// parseLocation splits FILE:LINE[:COL]. The file part may itself contain
// colons.
func parseLocation(s string) (path string, line, col int, err error) {
	parts := strings.Split(s, ":")
	if len(parts) < 2 {
		return "", 0, 0, fmt.Errorf("invalid location %q, want FILE:LINE[:COL]", s)
	}

	nums := make([]int, 0, 2)
	for len(parts) > 1 && len(nums) < 2 {
		n, convErr := strconv.Atoi(parts[len(parts)-1])
		if convErr != nil {
			break
		}
		nums = append([]int{n}, nums...)
		parts = parts[:len(parts)-1]
	}
	if len(nums) == 0 || nums[0] < 1 {
		return "", 0, 0, fmt.Errorf("invalid location %q, want FILE:LINE[:COL]", s)
	}

	line = nums[0]
	if len(nums) == 2 {
		col = nums[1]
	}
	return strings.Join(parts, ":"), line, col, nil
}

func parseAPI(versions *sdk.Table, s string) (int, error) {
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n, nil
	}
	if level, ok := versions.Level(s); ok {
		return level, nil
	}
	return 0, fmt.Errorf("unknown API level %q", s)
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i]) + " ..."
	}
	return s
}

func yesNo(b bool) string {
	if b {
		return color.GreenString("yes")
	}
	return color.RedString("no")
}
