package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/matheus3301/confchat/internal/api"
	"github.com/matheus3301/confchat/internal/app"
	"github.com/matheus3301/confchat/internal/host"
	"github.com/matheus3301/confchat/internal/lock"
	"github.com/matheus3301/confchat/internal/session"
	"github.com/matheus3301/confchat/internal/store"
	intsync "github.com/matheus3301/confchat/internal/sync"
	"github.com/matheus3301/confchat/internal/tui/views"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

const (
	requestTimeout = 30 * time.Second
	searchLimit    = 20
)

type clients struct {
	engine *intsync.Engine
	db     *store.DB
}

func main() {
	sessionFlag := flag.String("session", "", "session name (overrides config default)")
	jsonFlag := flag.Bool("json", false, "output in JSON format")
	yesFlag := flag.Bool("yes", false, "answer yes to confirmation prompts")
	flag.Parse()

	sessionName := session.Resolve(*sessionFlag)
	if err := session.ValidateName(sessionName); err != nil {
		fatal(err)
	}

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	// status must not take the session lock it reports on.
	if args[0] == "status" {
		cmdStatus(sessionName, *jsonFlag)
		return
	}

	term := host.NewTerminal()
	term.AssumeYes = *yesFlag

	var c clients
	fxApp := fx.New(
		app.Module(app.Params{SessionName: sessionName, Binary: "confchatctl", Host: term}),
		fx.WithLogger(func(l *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: l}
		}),
		fx.Populate(&c.engine, &c.db),
	)
	if err := fxApp.Err(); err != nil {
		fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	if err := fxApp.Start(ctx); err != nil {
		fatal(err)
	}

	runErr := run(ctx, c, args, *jsonFlag)

	stopCtx, stopCancel := context.WithTimeout(context.Background(), requestTimeout)
	defer stopCancel()
	_ = fxApp.Stop(stopCtx)

	if runErr != nil {
		fatal(runErr)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "usage: confchatctl [--session <name>] [--json] [--yes] <command>")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "commands:")
	fmt.Fprintln(os.Stderr, "  status                   Show whether a client holds the session")
	fmt.Fprintln(os.Stderr, "  chats                    List chats")
	fmt.Fprintln(os.Stderr, "  messages <partner>       Show the conversation with a partner")
	fmt.Fprintln(os.Stderr, "  send <partner> <text>    Send a message")
	fmt.Fprintln(os.Stderr, "  block <partner>          Block a partner")
	fmt.Fprintln(os.Stderr, "  history <partner>        Show archived messages")
	fmt.Fprintln(os.Stderr, "  search <query>           Search archived messages")
}

func run(ctx context.Context, c clients, args []string, jsonOut bool) error {
	switch args[0] {
	case "chats":
		return cmdChats(ctx, c, jsonOut)
	case "messages":
		if len(args) < 2 {
			return usageError("messages <partner>")
		}
		return cmdMessages(ctx, c, api.PartnerID(args[1]), jsonOut)
	case "send":
		if len(args) < 3 {
			return usageError("send <partner> <text>")
		}
		return cmdSend(ctx, c, api.PartnerID(args[1]), strings.Join(args[2:], " "), jsonOut)
	case "block":
		if len(args) < 2 {
			return usageError("block <partner>")
		}
		return cmdBlock(ctx, c, api.PartnerID(args[1]))
	case "history":
		if len(args) < 2 {
			return usageError("history <partner>")
		}
		return cmdHistory(c, args[1], jsonOut)
	case "search":
		if len(args) < 2 {
			return usageError("search <query>")
		}
		return cmdSearch(c, strings.Join(args[1:], " "), jsonOut)
	default:
		printUsage()
		return fmt.Errorf("unknown command: %s", args[0])
	}
}

func usageError(usage string) error {
	return fmt.Errorf("usage: confchatctl %s", usage)
}

func cmdStatus(sessionName string, jsonOut bool) {
	info, err := lock.Inspect(session.Dir(sessionName))
	if err != nil {
		fatal(err)
	}
	counts := archiveCounts(sessionName)

	if jsonOut {
		outputJSON(struct {
			Session string        `json:"session"`
			Running bool          `json:"running"`
			Holder  *lock.Info    `json:"holder,omitempty"`
			Archive *store.Counts `json:"archive,omitempty"`
		}{sessionName, info != nil, info, counts})
		return
	}
	fmt.Printf("Session: %s\n", sessionName)
	if info == nil {
		fmt.Println("Client:  not running")
	} else {
		fmt.Printf("Client:  %s (pid %d)\n", info.Command, info.PID)
		if !info.Started.IsZero() {
			fmt.Printf("Since:   %s\n", info.Started.Format(time.RFC3339))
		}
	}
	if counts != nil {
		fmt.Printf("Archive: %d chats, %d messages\n", counts.Chats, counts.Messages)
	}
}

// archiveCounts reads the archive without taking the session lock. It
// returns nil when there is no archive yet.
func archiveCounts(sessionName string) *store.Counts {
	path := session.ArchivePath(sessionName)
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	db, err := store.Open(path)
	if err != nil {
		return nil
	}
	defer func() { _ = db.Close() }()
	c, err := db.Counts()
	if err != nil {
		return nil
	}
	return &c
}

func cmdChats(ctx context.Context, c clients, jsonOut bool) error {
	if err := c.engine.LoadChats(ctx); err != nil {
		return err
	}
	chats := c.engine.Chats().Summaries()
	if jsonOut {
		outputJSON(chats)
		return nil
	}
	if len(chats) == 0 {
		fmt.Println("No chats.")
		return nil
	}
	now := time.Now()
	for _, chat := range chats {
		var when string
		if chat.LastMessageTime != nil {
			when = views.FormatRelative(*chat.LastMessageTime, now)
		}
		fmt.Printf("%-10s %-20s %-36s %-10s %d\n",
			chat.PartnerID, chat.PartnerName, views.ChatPreview(chat), when, chat.UnreadCount)
	}
	return nil
}

func cmdMessages(ctx context.Context, c clients, partnerID api.PartnerID, jsonOut bool) error {
	if err := c.engine.Select(ctx, partnerID); err != nil {
		return err
	}
	snap := c.engine.Snapshot()
	if jsonOut {
		outputJSON(api.Conversation{Partner: snap.Partner, Messages: snap.Messages})
		return nil
	}
	for _, m := range snap.Messages {
		printMessage(snap.Partner, m)
	}
	return nil
}

func cmdSend(ctx context.Context, c clients, partnerID api.PartnerID, text string, jsonOut bool) error {
	if err := c.engine.Select(ctx, partnerID); err != nil {
		return err
	}
	msg, err := c.engine.Send(ctx, text)
	if err != nil {
		return err
	}
	if jsonOut {
		outputJSON(msg)
		return nil
	}
	fmt.Printf("Sent message %d\n", msg.ID)
	return nil
}

func cmdBlock(ctx context.Context, c clients, partnerID api.PartnerID) error {
	if err := c.engine.Select(ctx, partnerID); err != nil {
		return err
	}
	err := c.engine.Block(ctx)
	if errors.Is(err, intsync.ErrCancelled) {
		fmt.Println("Cancelled.")
		return nil
	}
	return err
}

func cmdHistory(c clients, partnerID string, jsonOut bool) error {
	msgs, err := c.db.ListMessages(partnerID, 0, api.DefaultMessageLimit)
	if err != nil {
		return err
	}
	if jsonOut {
		outputJSON(msgs)
		return nil
	}
	if len(msgs) == 0 {
		fmt.Println("Nothing archived.")
		return nil
	}
	// Oldest first.
	for i := len(msgs) - 1; i >= 0; i-- {
		m := msgs[i]
		sender := m.PartnerID
		if m.IsOwn {
			sender = "You"
		}
		fmt.Printf("[%s] %s: %s\n", views.FormatMessageTime(time.UnixMilli(m.Timestamp)), sender, m.Body)
	}
	return nil
}

func cmdSearch(c clients, query string, jsonOut bool) error {
	results, err := c.db.SearchMessages(query, "", searchLimit)
	if err != nil {
		return err
	}
	if jsonOut {
		outputJSON(results)
		return nil
	}
	if len(results) == 0 {
		fmt.Println("No matches.")
		return nil
	}
	for _, r := range results {
		fmt.Printf("%-10s %s\n", r.Message.PartnerID, r.Snippet)
	}
	return nil
}

func printMessage(partner api.Partner, m api.Message) {
	sender := partner.DisplayName
	if m.IsOwn {
		sender = "You"
	}
	fmt.Printf("[%s] %s: %s\n", views.FormatMessageTime(m.Timestamp), sender, m.Preview())
}

func outputJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "json encode error: %v\n", err)
	}
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
