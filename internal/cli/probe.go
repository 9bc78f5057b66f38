package cli

import (
	"fmt"
	"io"
	"strings"

	"tour_guide_rag/internal/app"
	"tour_guide_rag/internal/retriever"
	"tour_guide_rag/pkg"

	"github.com/spf13/cobra"
)

// probeCase is one sample question sent to a single retriever.
type probeCase struct {
	retriever   string
	query       string
	tourContext string
}

var probeCases = []probeCase{
	{"knowledge", "경복궁 이용시간 알려줘", "투어: 경복궁"},
	{"weather", "오늘 경복궁 날씨 어때?", "경복궁"},
	{"vector", "광화문에 대해 알려줘", "투어: 경복궁"},
}

func init() {
	probe := &cobra.Command{
		Use:   "probe",
		Short: "Check external sources with sample questions",
	}

	tourAPI := &cobra.Command{
		Use:   "tourapi [keyword]",
		Short: "Call the Tour API search and detail endpoints",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runProbeTourAPI,
	}

	rag := &cobra.Command{
		Use:   "rag",
		Short: "Run each retriever, the full enrichment and one chat turn",
		Args:  cobra.NoArgs,
		RunE:  runProbeRAG,
	}
	rag.Flags().Bool("skip-chat", false, "Do not call the chat model")

	probe.AddCommand(tourAPI, rag)
	RootCmd.AddCommand(probe)
}

func runProbeTourAPI(cmd *cobra.Command, args []string) error {
	kw := "경복궁"
	if len(args) == 1 {
		kw = args[0]
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	if !a.TourAPI.Configured() {
		fmt.Fprintln(out, "DATA_GO_KR_SERVICE_KEY is not set")
		return fmt.Errorf("tour api not configured")
	}

	fmt.Fprintf(out, "1. searchKeyword2 %q\n", kw)
	items, err := a.TourAPI.SearchKeyword(cmd.Context(), kw)
	if err != nil {
		fmt.Fprintf(out, "   failed: %v\n", err)
	} else {
		fmt.Fprintf(out, "   %d item(s)\n", len(items))
		if len(items) > 0 {
			fmt.Fprintf(out, "   first result: %s\n", items[0]["title"])
		}
	}

	fmt.Fprintf(out, "\n2. fetch info %q\n", kw)
	info, err := a.TourAPI.FetchInfo(cmd.Context(), kw)
	if err != nil {
		fmt.Fprintf(out, "   failed: %v\n", err)
		return err
	}
	for _, f := range info.Fields() {
		fmt.Fprintf(out, "   %s: %s\n", f.Label, preview(f.Value, 60))
	}
	return nil
}

func runProbeRAG(cmd *cobra.Command, _ []string) error {
	skipChat, _ := cmd.Flags().GetBool("skip-chat")

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	for i, c := range probeCases {
		fmt.Fprintf(out, "\n=== %d. %s ===\n", i+1, c.retriever)
		probeRetriever(cmd, out, a, c)
	}

	fmt.Fprintf(out, "\n=== %d. enrichment ===\n", len(probeCases)+1)
	enriched := a.Orchestrator.Enrich(cmd.Context(), "경복궁 날씨랑 이용시간 알려줘",
		"투어: 경복궁 산책\n- 스팟 1: 광화문\n- 스팟 2: 근정전", nil)
	if enriched == "" {
		fmt.Fprintln(out, "no context")
	} else {
		fmt.Fprintln(out, preview(enriched, 500))
	}

	if skipChat {
		return nil
	}
	fmt.Fprintf(out, "\n=== %d. chat ===\n", len(probeCases)+2)
	resp := a.Chat.Chat(cmd.Context(), "투어: 경복궁\n- 스팟: 광화문", []pkg.ChatTurn{
		{Role: pkg.RoleUser, Content: "경복궁 이용시간이 어떻게 되나요?"},
	})
	fmt.Fprintln(out, preview(resp.Text, 400))
	return nil
}

func probeRetriever(cmd *cobra.Command, out io.Writer, a *app.App, c probeCase) {
	var r retriever.Retriever
	for _, candidate := range a.Retrievers {
		if candidate.Name() == c.retriever {
			r = candidate
		}
	}
	if r == nil {
		fmt.Fprintln(out, "not configured, skipped")
		return
	}
	if !r.ShouldRetrieve(c.query, c.tourContext) {
		fmt.Fprintln(out, "not relevant for the sample question")
		return
	}
	res := r.Retrieve(cmd.Context(), c.query, c.tourContext)
	switch res.Kind {
	case retriever.KindHit:
		fmt.Fprintln(out, preview(res.Text, 300))
	case retriever.KindFailed:
		fmt.Fprintf(out, "failed: %v\n", res.Err)
	default:
		fmt.Fprintln(out, "no result")
	}
}

// preview cuts s to n runes and marks the cut.
func preview(s string, n int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n]) + "..."
}
