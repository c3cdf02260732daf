package generate

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jamesatintegratnio/fleetgen/internal/fleet"
	"github.com/jamesatintegratnio/fleetgen/internal/tui"
	"github.com/spf13/cobra"
)

// NewPlanCmd returns the plan command.
func NewPlanCmd() *cobra.Command {
	var flags fleetFlags
	cmd := &cobra.Command{
		Use:   "plan [all|services|manifests]",
		Short: "Show the derived fleet without rendering it",
		Long: `Lists every function with its endpoint, route, port, replicas, resource
requests and derived limits, followed by fleet totals summed over all replicas.`,
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: pipelineArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := pipelineArg(args)
			if err != nil {
				return err
			}
			s, err := flags.open(func(o *fleet.Options) { o.Pipelines = p })
			if err != nil {
				return err
			}
			plan, err := s.gen.Plan(s.reg.Descriptors())
			if err != nil {
				return classify(err)
			}
			if ok, err := tui.PrintStructured(plan); ok {
				return err
			}
			fmt.Fprint(tui.Stdout, formatPlan(plan, s.source))
			for _, w := range plan.Warnings {
				tui.Warn("%s", w)
			}
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func formatPlan(p *fleet.Plan, source string) string {
	var b strings.Builder
	b.WriteString(tui.TitleStyle.Render("Fleet plan") + "\n")
	b.WriteString(tui.KeyValue("Registry", source) + "\n")
	b.WriteString(tui.KeyValue("Namespace", p.Namespace) + "\n")
	b.WriteString(tui.KeyValue("Host", p.Host) + "\n")
	b.WriteString(tui.KeyValue("Pipelines", p.Pipelines) + "\n\n")

	rows := make([][]string, 0, len(p.Functions))
	for _, f := range p.Functions {
		rows = append(rows, []string{
			f.Name,
			f.Route,
			strconv.Itoa(f.Port),
			strconv.Itoa(f.Replicas),
			f.CPURequest + " / " + f.CPULimit,
			f.MemoryRequest + " / " + f.MemoryLimit,
		})
	}
	t := p.Totals
	footer := []string{
		fmt.Sprintf("%d functions", t.Functions),
		"",
		"",
		strconv.Itoa(t.Replicas),
		t.CPURequests + " / " + t.CPULimits,
		t.MemoryRequests + " / " + t.MemoryLimits,
	}
	b.WriteString(tui.Table([]string{"FUNCTION", "ROUTE", "PORT", "REPLICAS", "CPU", "MEMORY"}, rows, footer) + "\n")
	b.WriteString(tui.DimStyle.Render(fmt.Sprintf("  %d artifacts would be generated", t.Artifacts)) + "\n")
	return b.String()
}
