package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/amonks/taskboard/board"
	"github.com/amonks/taskboard/internal/markdown"
	"github.com/amonks/taskboard/internal/ui"
	"github.com/amonks/taskboard/task"
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Manage the logged-in user's tasks",
}

// task list
var taskListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks by lane",
	Args:  cobra.NoArgs,
	RunE:  runTaskList,
}

var (
	taskListStatus string
	taskListJSON   bool
)

// task show
var taskShowCmd = &cobra.Command{
	Use:   "show <id>...",
	Short: "Show detailed information about tasks",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runTaskShow,
}

var taskShowJSON bool

// task create
var taskCreateCmd = &cobra.Command{
	Use:   "create <title>",
	Short: "Create a new task",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskCreate,
}

var (
	taskCreateDescription string
	taskCreateStatus      string
)

// task edit
var taskEditCmd = &cobra.Command{
	Use:     "edit <id>",
	Short:   "Replace a task's title, description or status",
	Aliases: []string{"update"},
	Args:    cobra.ExactArgs(1),
	RunE:    runTaskEdit,
}

var (
	taskEditTitle       string
	taskEditDescription string
	taskEditStatus      string
)

// task delete
var taskDeleteCmd = &cobra.Command{
	Use:   "delete <id>...",
	Short: "Delete one or more tasks",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runTaskDelete,
}

// task move
var taskMoveCmd = &cobra.Command{
	Use:   "move <id> <status>",
	Short: "Move a task to another lane (todo, in_progress, done)",
	Args:  cobra.ExactArgs(2),
	RunE:  runTaskMove,
}

func init() {
	rootCmd.AddCommand(taskCmd)
	taskCmd.AddCommand(taskListCmd, taskShowCmd, taskCreateCmd, taskEditCmd, taskDeleteCmd, taskMoveCmd)

	taskListCmd.Flags().StringVar(&taskListStatus, "status", "", "Only list tasks with this status")
	taskListCmd.Flags().BoolVar(&taskListJSON, "json", false, "Output as JSON")

	taskShowCmd.Flags().BoolVar(&taskShowJSON, "json", false, "Output as JSON")

	taskCreateCmd.Flags().StringVarP(&taskCreateDescription, "description", "d", "", "Task description")
	taskCreateCmd.Flags().StringVarP(&taskCreateStatus, "status", "s", string(task.StatusTodo), "Initial status")

	taskEditCmd.Flags().StringVar(&taskEditTitle, "title", "", "New title")
	taskEditCmd.Flags().StringVarP(&taskEditDescription, "description", "d", "", "New description")
	taskEditCmd.Flags().StringVarP(&taskEditStatus, "status", "s", "", "New status")

	addDescriptionFlagAliases(taskCreateCmd, taskEditCmd)
}

// fetchedBoard opens the board and loads the task list. A failed fetch is
// an error here even though the board itself only logs it.
func fetchedBoard(cmd *cobra.Command) (*board.Board, error) {
	b, err := openBoard()
	if err != nil {
		return nil, err
	}
	if err := b.Refetch(cmd.Context()); err != nil {
		return nil, fmt.Errorf("fetch tasks: %w", err)
	}
	return b, nil
}

func runTaskList(cmd *cobra.Command, args []string) error {
	var filter task.Status
	if taskListStatus != "" {
		status, err := task.ParseStatus(taskListStatus)
		if err != nil {
			return err
		}
		filter = status
	}

	b, err := fetchedBoard(cmd)
	if err != nil {
		return err
	}
	tasks := b.Tasks()
	if filter != "" {
		tasks = b.Lanes().Lane(filter)
	}

	if taskListJSON {
		return encodeJSON(cmd.OutOrStdout(), tasks)
	}
	out := cmd.OutOrStdout()
	if len(tasks) == 0 {
		fmt.Fprintln(out, "No tasks found.")
		return nil
	}

	lanes := task.Partition(tasks)
	statuses := task.ValidStatuses()
	if filter != "" {
		statuses = []task.Status{filter}
	}
	now := time.Now()
	for i, status := range statuses {
		lane := lanes.Lane(status)
		if i > 0 {
			fmt.Fprintln(out)
		}
		fmt.Fprintln(out, headingStyle.Render(fmt.Sprintf("%s (%d)", status.Label(), len(lane))))
		if len(lane) == 0 {
			continue
		}
		table := ui.NewTable(len(lane), "ID", "TITLE", "CREATED")
		for _, item := range lane {
			table.AddRow(strconv.FormatInt(item.ID, 10), ui.TruncateCell(item.Title), ui.FormatTimeAgo(item.CreatedAt, now))
		}
		fmt.Fprint(out, table.String())
	}
	return nil
}

var headingStyle = lipgloss.NewStyle().Bold(true)

func runTaskShow(cmd *cobra.Command, args []string) error {
	ids, err := parseIDs(args)
	if err != nil {
		return err
	}
	b, err := fetchedBoard(cmd)
	if err != nil {
		return err
	}

	items := make([]task.Task, 0, len(ids))
	for _, id := range ids {
		item, ok := b.Find(id)
		if !ok {
			return fmt.Errorf("task %d not found", id)
		}
		items = append(items, item)
	}

	if taskShowJSON {
		return encodeJSON(cmd.OutOrStdout(), items)
	}
	out := cmd.OutOrStdout()
	for i, item := range items {
		if i > 0 {
			fmt.Fprintln(out)
		}
		fmt.Fprint(out, formatTaskDetail(item, terminalWidth(out)))
	}
	return nil
}

func formatTaskDetail(item task.Task, width int) string {
	var builder strings.Builder
	fmt.Fprintf(&builder, "ID:      %d\n", item.ID)
	fmt.Fprintf(&builder, "Title:   %s\n", item.Title)
	fmt.Fprintf(&builder, "Status:  %s\n", ui.StatusLabel(item.Status))
	fmt.Fprintf(&builder, "Created: %s\n", formatTimestamp(item.CreatedAt))
	fmt.Fprintf(&builder, "Updated: %s\n", formatTimestamp(item.UpdatedAt))
	if description := markdown.Render(width, 2, item.Description); description != "" {
		builder.WriteString("\nDescription:\n")
		builder.WriteString(description)
		builder.WriteString("\n")
	}
	return builder.String()
}

func formatTimestamp(value time.Time) string {
	if value.IsZero() {
		return "-"
	}
	return value.Local().Format("2006-01-02 15:04:05")
}

func runTaskCreate(cmd *cobra.Command, args []string) error {
	status, err := task.ParseStatus(taskCreateStatus)
	if err != nil {
		return err
	}
	title := strings.TrimSpace(args[0])
	if err := task.ValidateTitle(title); err != nil {
		return err
	}

	b, err := openBoard()
	if err != nil {
		return err
	}
	created, err := b.Create(cmd.Context(), task.Draft{
		Title:       title,
		Description: taskCreateDescription,
		Status:      status,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created task %d: %s\n", created.ID, created.Title)
	return nil
}

func runTaskEdit(cmd *cobra.Command, args []string) error {
	if !hasChangedFlags(cmd, "title", "description", "status") {
		return fmt.Errorf("nothing to change; pass --title, --description or --status")
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	b, err := fetchedBoard(cmd)
	if err != nil {
		return err
	}
	item, ok := b.Find(id)
	if !ok {
		return fmt.Errorf("task %d not found", id)
	}

	if cmd.Flags().Changed("title") {
		item.Title = strings.TrimSpace(taskEditTitle)
		if err := task.ValidateTitle(item.Title); err != nil {
			return err
		}
	}
	if cmd.Flags().Changed("description") {
		item.Description = taskEditDescription
	}
	if cmd.Flags().Changed("status") {
		status, err := task.ParseStatus(taskEditStatus)
		if err != nil {
			return err
		}
		item.Status = status
	}

	updated, err := b.Update(cmd.Context(), item)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Updated task %d: %s\n", updated.ID, updated.Title)
	return nil
}

func runTaskDelete(cmd *cobra.Command, args []string) error {
	ids, err := parseIDs(args)
	if err != nil {
		return err
	}
	b, err := openBoard()
	if err != nil {
		return err
	}
	for _, id := range ids {
		if err := b.Delete(cmd.Context(), id); err != nil {
			return fmt.Errorf("delete task %d: %w", id, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted task %d\n", id)
	}
	return nil
}

// runTaskMove drives the same drag gesture the boards use: grab the task in
// its lane and drop it at the top of the target lane.
func runTaskMove(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	target, err := task.ParseStatus(args[1])
	if err != nil {
		return err
	}
	b, err := fetchedBoard(cmd)
	if err != nil {
		return err
	}
	item, ok := b.Find(id)
	if !ok {
		return fmt.Errorf("task %d not found", id)
	}
	if item.Status == target {
		fmt.Fprintf(cmd.OutOrStdout(), "Task %d is already in %s\n", id, target.Label())
		return nil
	}

	source := board.Location{Lane: item.Status, Index: laneIndex(b.Lanes().Lane(item.Status), id)}
	b.DragStart(id)
	b.DragUpdate(task.StatusPtr(target))
	outcome, err := b.DragEnd(cmd.Context(), board.DropResult{
		TaskID:      id,
		Source:      source,
		Destination: &board.Location{Lane: target, Index: 0},
	})
	if err != nil {
		return fmt.Errorf("move task %d: %w", id, err)
	}
	if outcome != board.DropMoved {
		return fmt.Errorf("move task %d: %s", id, outcome)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Moved task %d to %s\n", id, target.Label())
	return nil
}

func laneIndex(lane []task.Task, id int64) int {
	for i, item := range lane {
		if item.ID == id {
			return i
		}
	}
	return 0
}

func parseID(value string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid task id %q", value)
	}
	return id, nil
}

func parseIDs(values []string) ([]int64, error) {
	ids := make([]int64, 0, len(values))
	for _, value := range values {
		id, err := parseID(value)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func encodeJSON(w io.Writer, value any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}

func terminalWidth(w io.Writer) int {
	const fallback = 80
	file, ok := w.(interface{ Fd() uintptr })
	if !ok || !term.IsTerminal(int(file.Fd())) {
		return fallback
	}
	width, _, err := term.GetSize(int(file.Fd()))
	if err != nil || width <= 0 {
		return fallback
	}
	return width
}
