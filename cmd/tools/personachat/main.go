// personachat 在终端里和某个 persona 对话，用于不接语音管线时手动调试工具调用。
//
//	go run ./cmd/tools/personachat -persona grocery
//	go run ./cmd/tools/personachat -persona gamemaster -universe horror
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/zhouzirui/voicedesk/backend/internal/app"
	"github.com/zhouzirui/voicedesk/backend/internal/config"
	"github.com/zhouzirui/voicedesk/backend/internal/service/conversation"
	"github.com/zhouzirui/voicedesk/backend/internal/service/desk"
	"github.com/zhouzirui/voicedesk/backend/pkg/logger"
)

func main() {
	personaID := flag.String("persona", "barista", "persona id，例如 grocery / fraud / tutor")
	universe := flag.String("universe", "", "游戏主持人的世界观 (fantasy, cyberpunk, space, horror)")
	room := flag.String("room", "console", "房间名")
	timeout := flag.Duration("timeout", 60*time.Second, "单轮请求超时时间")
	flag.Parse()

	if err := godotenv.Load(".env.local"); err != nil {
		_ = godotenv.Load()
	}

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("配置加载失败")
	}
	logger.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx := context.Background()
	application, err := app.Build(ctx, cfg)
	if err != nil {
		logrus.WithError(err).Fatal("服务初始化失败")
	}
	defer application.Close()

	metadata := ""
	if *universe != "" {
		metadata = fmt.Sprintf(`{"universe":%q}`, *universe)
	}

	if err := run(ctx, application.Desk, os.Stdin, os.Stdout, *personaID, *room, metadata, *timeout); err != nil {
		logrus.WithError(err).Fatal("对话结束")
	}
}

func run(ctx context.Context, d *desk.Desk, in io.Reader, out io.Writer, personaID, room, metadata string, timeout time.Duration) error {
	session, profile, err := d.Open(ctx, personaID, room, metadata)
	if err != nil {
		return err
	}
	defer func() { _ = d.Close(ctx, session.ID) }()

	fmt.Fprintf(out, "[%s / %s] %s\n", profile.Name, profile.VoiceID, profile.OpeningLine)

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		if text == "/quit" {
			return nil
		}

		turnCtx, cancel := context.WithTimeout(ctx, timeout)
		reply, err := d.Say(turnCtx, session.ID, text)
		cancel()
		if err != nil {
			fmt.Fprintf(out, "! %v\n", err)
			continue
		}
		printReply(out, reply)
	}
}

func printReply(out io.Writer, reply *conversation.Reply) {
	for _, ev := range reply.Events {
		switch ev.Type {
		case conversation.EventHandoff:
			fmt.Fprintf(out, "  -> handoff to %s\n", ev.Name)
		default:
			fmt.Fprintf(out, "  (%s) %s\n", ev.Name, ev.Text)
		}
	}
	fmt.Fprintf(out, "[%s / %s] %s\n", reply.PersonaID, reply.Voice, reply.Text)
}
