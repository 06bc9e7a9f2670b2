package client

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

// ExtractResult mirrors the /extract response.
type ExtractResult struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	Content    string `json:"content"`
	Size       int64  `json:"size"`
	File       *File  `json:"file,omitempty"`
	Job        *Job   `json:"job,omitempty"`
	ArchiveKey string `json:"archiveKey,omitempty"`
}

type CrawledPage struct {
	URL     string `json:"url"`
	Title   string `json:"title,omitempty"`
	Content string `json:"content,omitempty"`
	Error   string `json:"error,omitempty"`
}

type CrawlResult struct {
	Pages  []CrawledPage `json:"pages"`
	Total  int           `json:"total"`
	Stored int           `json:"stored"`
	Job    *Job          `json:"job,omitempty"`
}

// CrawlRequest is the body of POST /crawl.
type CrawlRequest struct {
	BaseURL             string `json:"baseUrl"`
	Limit               int    `json:"limit"`
	CrawlDepth          int    `json:"crawlDepth"`
	IncludeSubdomains   bool   `json:"includeSubdomains"`
	FollowExternalLinks bool   `json:"followExternalLinks"`
	ExclusionPatterns   string `json:"exclusionPatterns,omitempty"`
	AgentID             string `json:"agentId,omitempty"`
	Train               bool   `json:"train"`
}

// UploadCmd extracts text from a local document and optionally stores it.
func UploadCmd() *cobra.Command {
	var (
		agent    string
		train    bool
		preview  bool
		progress bool
	)

	cmd := &cobra.Command{
		Use:   "upload <path>",
		Short: "Extract text from a document (PDF, DOCX, HTML, text)",
		Long: `Upload a document to /extract. With --agent the extracted text is stored
as a file of that agent, and --train queues a training job afterwards.
Without --agent the text is only returned.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}
			var onProgress ProgressFunc
			if progress {
				onProgress = stderrProgress(args[0])
			}
			return runUpload(api, cmd.OutOrStdout(), args[0], agent, train, preview, onProgress, jsonOutput(cmd))
		},
	}

	cmd.Flags().StringVarP(&agent, "agent", "a", "", "Store the text for this agent")
	cmd.Flags().BoolVar(&train, "train", false, "Queue a training job after storing")
	cmd.Flags().BoolVar(&preview, "preview", false, "Print the extracted text")
	cmd.Flags().BoolVar(&progress, "progress", false, "Report upload progress on stderr")

	return cmd
}

func runUpload(api *APIClient, out io.Writer, path, agentID string, train, preview bool, onProgress ProgressFunc, asJSON bool) error {
	fields := map[string]string{"agentId": agentID}
	if train {
		fields["train"] = "true"
	}

	resp, err := api.UploadFile("/extract", path, fields, onProgress)
	if err != nil {
		return fmt.Errorf("upload failed: %w", err)
	}

	var result ExtractResult
	if err := resp.Decode(&result); err != nil {
		return err
	}

	if asJSON {
		return printJSON(out, result)
	}

	fmt.Fprintf(out, "Extracted %s [%s], %d characters\n", result.Name, result.Type, len(result.Content))
	if result.File != nil {
		fmt.Fprintf(out, "Stored as file %s\n", result.File.ID)
	}
	if result.ArchiveKey != "" {
		fmt.Fprintf(out, "Archived at %s\n", result.ArchiveKey)
	}
	if result.Job != nil {
		fmt.Fprintf(out, "Training job %s (%s)\n", result.Job.ID, result.Job.Status)
	}
	if preview {
		fmt.Fprintf(out, "%s\n%s\n", separator, result.Content)
	}
	return nil
}

func stderrProgress(name string) ProgressFunc {
	return func(current, total int64) {
		if total <= 0 {
			return
		}
		fmt.Fprintf(os.Stderr, "\r%s: %3d%%", name, current*100/total)
		if current >= total {
			fmt.Fprintln(os.Stderr)
		}
	}
}

// CrawlCmd crawls a website through the server.
func CrawlCmd() *cobra.Command {
	req := CrawlRequest{}

	cmd := &cobra.Command{
		Use:   "crawl <url>",
		Short: "Crawl a website and optionally store its pages",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}
			req.BaseURL = args[0]
			return runCrawl(api, cmd.OutOrStdout(), req, jsonOutput(cmd))
		},
	}

	cmd.Flags().StringVarP(&req.AgentID, "agent", "a", "", "Store crawled pages for this agent")
	cmd.Flags().IntVarP(&req.Limit, "limit", "n", 100, "Maximum number of pages")
	cmd.Flags().IntVar(&req.CrawlDepth, "depth", 3, "Maximum link depth from the start page")
	cmd.Flags().BoolVar(&req.IncludeSubdomains, "subdomains", false, "Follow links to subdomains")
	cmd.Flags().BoolVar(&req.FollowExternalLinks, "external", false, "Follow links to other sites")
	cmd.Flags().StringVar(&req.ExclusionPatterns, "exclude", "", "Comma separated URL patterns to skip (* wildcard)")
	cmd.Flags().BoolVar(&req.Train, "train", false, "Queue a training job after storing")

	return cmd
}

func runCrawl(api *APIClient, out io.Writer, req CrawlRequest, asJSON bool) error {
	resp, err := api.Post("/crawl", req)
	if err != nil {
		return fmt.Errorf("crawl failed: %w", err)
	}

	var result CrawlResult
	if err := resp.Decode(&result); err != nil {
		return err
	}

	if asJSON {
		return printJSON(out, result)
	}

	for _, p := range result.Pages {
		if p.Error != "" {
			fmt.Fprintf(out, "  x %s (%s)\n", p.URL, p.Error)
			continue
		}
		fmt.Fprintf(out, "  + %s %s\n", p.URL, strconv.Quote(p.Title))
	}
	fmt.Fprintf(out, "Crawled %d pages", result.Total)
	if req.AgentID != "" {
		fmt.Fprintf(out, ", stored %d", result.Stored)
	}
	fmt.Fprintln(out)
	if result.Job != nil {
		fmt.Fprintf(out, "Training job %s (%s)\n", result.Job.ID, result.Job.Status)
	}
	return nil
}
