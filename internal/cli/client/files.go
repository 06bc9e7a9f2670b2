package client

import (
	"fmt"
	"io"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"
)

// File mirrors the file metadata returned by the API.
type File struct {
	ID        string `json:"id"`
	AgentID   string `json:"agent_id"`
	FileName  string `json:"file_name"`
	FileType  string `json:"file_type"`
	Size      int64  `json:"size"`
	Trained   bool   `json:"trained"`
	Indexed   bool   `json:"indexed"`
	CreatedAt string `json:"created_at"`
}

type FileList struct {
	Items   []File `json:"items"`
	Cursor  string `json:"cursor,omitempty"`
	HasMore bool   `json:"has_more"`
}

// FilesCmd creates the files parent command.
func FilesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "files",
		Short: "List and delete agent files",
	}

	var (
		agent  string
		limit  int
		cursor string
	)
	list := &cobra.Command{
		Use:   "list",
		Short: "List the files stored for an agent",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			agentID, err := resolveAgent(agent)
			if err != nil {
				return err
			}
			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}
			return runFileList(api, cmd.OutOrStdout(), agentID, limit, cursor, jsonOutput(cmd))
		},
	}
	list.Flags().StringVarP(&agent, "agent", "a", "", "Agent ID")
	list.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of results")
	list.Flags().StringVar(&cursor, "cursor", "", "Pagination cursor from previous response")

	var deleteAgent string
	del := &cobra.Command{
		Use:   "delete <fileID>",
		Short: "Delete a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			agentID, err := resolveAgent(deleteAgent)
			if err != nil {
				return err
			}
			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}
			return runFileDelete(api, cmd.OutOrStdout(), agentID, args[0])
		},
	}
	del.Flags().StringVarP(&deleteAgent, "agent", "a", "", "Agent ID")

	cmd.AddCommand(list, del)
	return cmd
}

func agentPath(agentID string, rest ...string) string {
	p := "/agents/" + url.PathEscape(agentID)
	for _, r := range rest {
		p += "/" + url.PathEscape(r)
	}
	return p
}

func runFileList(api *APIClient, out io.Writer, agentID string, limit int, cursor string, asJSON bool) error {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	if cursor != "" {
		q.Set("cursor", cursor)
	}

	resp, err := api.Get(agentPath(agentID, "files") + "?" + q.Encode())
	if err != nil {
		return fmt.Errorf("failed to list files: %w", err)
	}

	var list FileList
	if err := resp.Decode(&list); err != nil {
		return err
	}

	if asJSON {
		return printJSON(out, list)
	}
	if len(list.Items) == 0 {
		fmt.Fprintln(out, "No files found.")
		return nil
	}

	for i, f := range list.Items {
		status := "untrained"
		if f.Trained {
			status = "trained"
		}
		fmt.Fprintf(out, "%d. %s [%s] %d bytes, %s\n", i+1, f.FileName, f.FileType, f.Size, status)
		fmt.Fprintf(out, "   ID: %s\n", f.ID)
	}
	if list.HasMore && list.Cursor != "" {
		fmt.Fprintf(out, "\n%s\nMore results available. Use --cursor %s\n", separator, list.Cursor)
	}
	return nil
}

func runFileDelete(api *APIClient, out io.Writer, agentID, fileID string) error {
	if _, err := api.Delete(agentPath(agentID, "files", fileID)); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	fmt.Fprintf(out, "File %s deleted\n", fileID)
	return nil
}

// AddCmd creates the add command for plain text and Q&A pairs.
func AddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add text or a question/answer pair to an agent",
	}

	var (
		textAgent string
		title     string
		file      string
	)
	text := &cobra.Command{
		Use:   "text",
		Short: "Add plain text from a file or stdin",
		Example: `  agentrag add text --title "Refund policy" --file refunds.txt
  cat notes.md | agentrag add text --title Notes`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			agentID, err := resolveAgent(textAgent)
			if err != nil {
				return err
			}
			content, err := readInput(file)
			if err != nil {
				return err
			}
			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}
			return runAddText(api, cmd.OutOrStdout(), agentID, title, content, jsonOutput(cmd))
		},
	}
	text.Flags().StringVarP(&textAgent, "agent", "a", "", "Agent ID")
	text.Flags().StringVarP(&title, "title", "t", "", "Title (required)")
	text.Flags().StringVarP(&file, "file", "f", "", "Input file (default: stdin)")
	text.MarkFlagRequired("title")

	var (
		qaAgent  string
		question string
		answer   string
	)
	qa := &cobra.Command{
		Use:   "qa",
		Short: "Add a question and answer pair",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			agentID, err := resolveAgent(qaAgent)
			if err != nil {
				return err
			}
			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}
			return runAddQA(api, cmd.OutOrStdout(), agentID, question, answer, jsonOutput(cmd))
		},
	}
	qa.Flags().StringVarP(&qaAgent, "agent", "a", "", "Agent ID")
	qa.Flags().StringVarP(&question, "question", "q", "", "Question (required)")
	qa.Flags().StringVar(&answer, "answer", "", "Answer (required)")
	qa.MarkFlagRequired("question")
	qa.MarkFlagRequired("answer")

	cmd.AddCommand(text, qa)
	return cmd
}

func runAddText(api *APIClient, out io.Writer, agentID, title, content string, asJSON bool) error {
	resp, err := api.Post(agentPath(agentID, "texts"), map[string]string{"title": title, "content": content})
	if err != nil {
		return fmt.Errorf("failed to add text: %w", err)
	}
	return printStoredFile(out, resp, asJSON)
}

func runAddQA(api *APIClient, out io.Writer, agentID, question, answer string, asJSON bool) error {
	resp, err := api.Post(agentPath(agentID, "qa"), map[string]string{"question": question, "answer": answer})
	if err != nil {
		return fmt.Errorf("failed to add Q&A: %w", err)
	}
	return printStoredFile(out, resp, asJSON)
}

func printStoredFile(out io.Writer, resp *APIResponse, asJSON bool) error {
	var f File
	if err := resp.Decode(&f); err != nil {
		return err
	}
	if asJSON {
		return printJSON(out, f)
	}
	fmt.Fprintf(out, "Stored %s (%s, %d bytes)\n", f.FileName, f.ID, f.Size)
	return nil
}
