package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/coder/websocket"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/duochat/internal/chatstate"
	"github.com/vovakirdan/duochat/internal/log"
	"github.com/vovakirdan/duochat/internal/proto"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		server      string
		username    string
		displayName string
		password    string
		register    bool
		logLevel    string
	)

	cmd := &cobra.Command{
		Use:           "duochat",
		Short:         "Terminal client for the duochat server",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(_ *cobra.Command, _ []string) error {
			logger := log.New(logLevel, true)
			return run(server, username, displayName, password, register, logger)
		},
	}

	cmd.Flags().StringVar(&server, "server", "http://localhost:8080", "server base URL")
	cmd.Flags().StringVarP(&username, "username", "u", "", "account username")
	cmd.Flags().StringVar(&displayName, "display-name", "", "display name when registering")
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password")
	cmd.Flags().BoolVar(&register, "register", false, "create the account before logging in")
	cmd.Flags().StringVar(&logLevel, "log-level", "warn", "log level")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

// session owns the reducer state and runs its effects.
type session struct {
	api    *apiClient
	state  chatstate.State
	path   string // snapshot file, empty when unavailable
	logger *zerolog.Logger
}

func run(server, username, displayName, password string, register bool, logger *zerolog.Logger) error {
	api := newAPIClient(server)

	var (
		token string
		err   error
	)
	if register {
		token, err = api.register(username, displayName, password)
	} else {
		token, err = api.login(username, password)
	}
	if err != nil {
		return err
	}
	api.token = token

	selfID, selfName, err := tokenIdentity(token)
	if err != nil {
		return err
	}

	path, err := chatstate.StatePath(selfID)
	if err != nil {
		logger.Warn().Err(err).Msg("no persistent state dir, roster order will not survive restarts")
		path = ""
	}
	var snap chatstate.Snapshot
	if path != "" {
		snap, _ = chatstate.LoadSnapshot(path)
	}

	sess := &session{
		api:    api,
		state:  chatstate.NewState(selfID, snap.Order),
		path:   path,
		logger: logger,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := dialWS(ctx, server, token)
	if err != nil {
		return err
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	events := make(chan chatstate.Event, 64)
	go pumpEvents(ctx, conn, events, logger)

	lines := make(chan string)
	go readLines(lines)

	// Seed the sidebar before the prompt appears.
	users, err := api.users()
	if err != nil {
		return err
	}
	sess.dispatch(chatstate.UsersFetched{Users: users})

	fmt.Printf("logged in as %s (#%d). /users lists peers, /quit exits.\n", selfName, selfID)
	prompt()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return fmt.Errorf("connection to %s lost", server)
			}
			sess.render(ev)
			sess.dispatch(ev)
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if quit := sess.command(strings.TrimSpace(line)); quit {
				return nil
			}
			prompt()
		}
	}
}

func readLines(lines chan<- string) {
	defer close(lines)
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		lines <- scanner.Text()
	}
}

func prompt() {
	fmt.Print("> ")
}

// dispatch folds an event into the state and runs the returned effects.
// FetchHistory resolves synchronously against REST and recurses; effect
// chains are short (fetch, then save) so this cannot loop.
func (s *session) dispatch(ev chatstate.Event) {
	next, effects := chatstate.Apply(s.state, ev)
	s.state = next

	for _, effect := range effects {
		switch e := effect.(type) {
		case chatstate.FetchHistory:
			msgs, err := s.api.history(e.PeerID)
			if err != nil {
				s.logger.Warn().Err(err).Int64("peer_id", e.PeerID).Msg("history fetch failed")
				continue
			}
			s.dispatch(chatstate.HistoryFetched{PeerID: e.PeerID, Messages: msgs})
		case chatstate.SaveRoster:
			if s.path == "" {
				continue
			}
			if err := chatstate.SaveSnapshot(s.path, chatstate.SnapshotOf(s.state)); err != nil {
				s.logger.Warn().Err(err).Msg("snapshot save failed")
			}
		}
	}
}

// render prints a push before it is folded into the state, so gating
// decisions (open peer, dedup) can be made against the pre-event view.
func (s *session) render(ev chatstate.Event) {
	switch e := ev.(type) {
	case chatstate.MessagePushed:
		m := e.Message
		if s.state.OpenPeer != 0 && (m.SenderID == s.state.OpenPeer || m.ReceiverID == s.state.OpenPeer) {
			fmt.Printf("\n%s\n> ", formatMessage(s.state.SelfID, m))
		}
	case chatstate.NotificationPushed:
		n := e.Notification
		if n.SenderID != s.state.SelfID && n.SenderID != s.state.OpenPeer {
			fmt.Printf("\n* %s: %s\n> ", n.SenderName, n.Preview)
		}
	case chatstate.MessageDeletedPushed:
		if s.state.OpenPeer != 0 {
			for _, m := range s.state.Messages {
				if m.ID == e.MessageID {
					fmt.Printf("\n* message %s was deleted\n> ", e.MessageID)
					break
				}
			}
		}
	}
}

func (s *session) command(line string) (quit bool) {
	if line == "" {
		return false
	}

	name, arg, _ := strings.Cut(line, " ")
	switch name {
	case "/quit":
		return true
	case "/users":
		s.printRoster()
	case "/open":
		s.open(strings.TrimSpace(arg))
	case "/close":
		s.dispatch(chatstate.ConversationClosed{})
	case "/send":
		s.send(arg)
	case "/del":
		s.del(strings.TrimSpace(arg))
	case "/react":
		s.react(arg)
	case "/unreact":
		s.unreact(arg)
	default:
		fmt.Println("commands: /users /open <peer> /close /send <text> /del <id> /react <id> <emoji> /unreact <id> <reaction-id> /quit")
	}
	return false
}

func (s *session) printRoster() {
	if len(s.state.Roster) == 0 {
		fmt.Println("nobody else is registered yet")
		return
	}
	for _, e := range s.state.Roster {
		marker := " "
		if s.state.Online[e.UserID] {
			marker = "*"
		}
		line := fmt.Sprintf("%s #%d %s (%s)", marker, e.UserID, e.DisplayName, e.Username)
		if e.Unread > 0 {
			line += fmt.Sprintf("  [%d unread]", e.Unread)
		}
		fmt.Println(line)
	}
}

// open resolves the argument as a user ID or username against the roster.
func (s *session) open(arg string) {
	if arg == "" {
		fmt.Println("usage: /open <peer id or username>")
		return
	}

	var peerID int64
	if id, err := strconv.ParseInt(arg, 10, 64); err == nil {
		peerID = id
	} else {
		for _, e := range s.state.Roster {
			if e.Username == arg {
				peerID = e.UserID
				break
			}
		}
	}
	if peerID == 0 {
		fmt.Printf("unknown peer %q\n", arg)
		return
	}

	s.dispatch(chatstate.ConversationOpened{PeerID: peerID})
	for _, m := range s.state.Messages {
		fmt.Println(formatMessage(s.state.SelfID, m))
	}
}

func (s *session) send(text string) {
	if s.state.OpenPeer == 0 {
		fmt.Println("open a conversation first: /open <peer>")
		return
	}
	if strings.TrimSpace(text) == "" {
		fmt.Println("usage: /send <text>")
		return
	}
	if _, err := s.api.send(s.state.OpenPeer, text); err != nil {
		fmt.Println(err)
	}
}

func (s *session) del(messageID string) {
	if messageID == "" {
		fmt.Println("usage: /del <message id>")
		return
	}
	if err := s.api.deleteMessage(messageID); err != nil {
		fmt.Println(err)
	}
}

func (s *session) react(arg string) {
	messageID, emoji, ok := strings.Cut(strings.TrimSpace(arg), " ")
	if !ok || messageID == "" || emoji == "" {
		fmt.Println("usage: /react <message id> <emoji>")
		return
	}
	if _, err := s.api.addReaction(messageID, strings.TrimSpace(emoji)); err != nil {
		fmt.Println(err)
	}
}

func (s *session) unreact(arg string) {
	messageID, reactionID, ok := strings.Cut(strings.TrimSpace(arg), " ")
	if !ok || messageID == "" || reactionID == "" {
		fmt.Println("usage: /unreact <message id> <reaction id>")
		return
	}
	if _, err := s.api.removeReaction(messageID, strings.TrimSpace(reactionID)); err != nil {
		fmt.Println(err)
	}
}

func formatMessage(selfID int64, m proto.MessageData) string {
	who := fmt.Sprintf("#%d", m.SenderID)
	if m.SenderID == selfID {
		who = "me"
	}

	var body string
	switch m.Kind {
	case "image":
		body = "[image] " + m.ImageURL
	case "voice":
		body = fmt.Sprintf("[voice %ds] %s", m.Duration, m.VoiceURL)
	case "emoji":
		body = m.Emoji
	default:
		body = m.Text
	}

	line := fmt.Sprintf("[%s] %s: %s (%s)", m.CreatedAt.Local().Format("15:04"), who, body, m.ID)
	for _, r := range m.Reactions {
		line += " " + r.Emoji
	}
	return line
}
