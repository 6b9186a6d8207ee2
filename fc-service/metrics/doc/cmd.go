package doc

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v2"

	"github.com/tokenfaucet/faucet-connector/fc-service/metrics"
)

var formatFlag = &cli.StringFlag{
	Name:  "format",
	Value: "markdown",
	Usage: "Output format (json|markdown)",
}

type Documentor interface {
	Document() []metrics.DocumentedMetric
}

func NewSubcommands(m Documentor) cli.Commands {
	return cli.Commands{
		{
			Name:  "metrics",
			Usage: "Dumps a list of supported metrics to stdout",
			Flags: []cli.Flag{formatFlag},
			Action: func(ctx *cli.Context) error {
				supportedMetrics := m.Document()
				format := ctx.String(formatFlag.Name)
				switch format {
				case "markdown":
					return printMetricsTable(ctx.App.Writer, supportedMetrics)
				case "json":
					enc := json.NewEncoder(ctx.App.Writer)
					enc.SetIndent("", "  ")
					return enc.Encode(supportedMetrics)
				default:
					return fmt.Errorf("invalid format %q", format)
				}
			},
		},
	}
}

func printMetricsTable(w io.Writer, supportedMetrics []metrics.DocumentedMetric) error {
	table := tablewriter.NewWriter(w)
	table.SetBorders(tablewriter.Border{Left: true, Top: false, Right: true, Bottom: false})
	table.SetCenterSeparator("|")
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Metric", "Type", "Labels", "Description"})
	for _, metric := range supportedMetrics {
		table.Append([]string{
			fmt.Sprintf("`%s`", metric.Name),
			metric.Type,
			strings.Join(metric.Labels, ","),
			metric.Help,
		})
	}
	table.Render()
	return nil
}
