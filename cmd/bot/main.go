package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/gorilla/websocket"

	"chestorganizer/internal/protocol"
	"chestorganizer/internal/sim/world/logic/ids"
)

// The bot places a chest next to spawn, fills it with scattered partial stacks, opens it and
// then either walks away or types the organize command. Chat lines are printed as they arrive.
func main() {
	var (
		url     = flag.String("url", "ws://localhost:8080/v1/ws", "ws url")
		name    = flag.String("name", "bot", "agent name")
		token   = flag.String("token", "", "join token")
		mode    = flag.String("mode", "walk", "walk | command | idle")
		command = flag.String("command", "!organize", "chat command used in -mode=command")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[bot] ", log.LstdFlags|log.Lmicroseconds)
	conn, _, err := websocket.DefaultDialer.Dial(*url, nil)
	if err != nil {
		logger.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	hello := protocol.HelloMsg{
		Type:            protocol.TypeHello,
		ProtocolVersion: protocol.Version,
		AgentName:       *name,
		MaxQueue:        16,
	}
	if *token != "" {
		hello.Auth = &protocol.HelloAuth{Token: *token}
	}
	if err := conn.WriteJSON(hello); err != nil {
		logger.Fatalf("send HELLO: %v", err)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	go func() {
		<-stop
		_ = conn.Close()
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		base, err := protocol.DecodeBase(msg)
		if err != nil {
			continue
		}
		switch base.Type {
		case protocol.TypeWelcome:
			var w protocol.WelcomeMsg
			if err := json.Unmarshal(msg, &w); err != nil {
				continue
			}
			logger.Printf("WELCOME agent_id=%s world=%s tick_rate=%d", w.AgentID, w.WorldParams.WorldID, w.WorldParams.TickRateHz)
			go runScript(conn, logger, *mode, *command, w.Spawn)

		case protocol.TypeEvent:
			var ev protocol.EventMsg
			if err := json.Unmarshal(msg, &ev); err != nil {
				continue
			}
			handleEvents(logger, &ev)
		}
	}
}

func handleEvents(logger *log.Logger, msg *protocol.EventMsg) {
	for _, e := range msg.Events {
		switch e.Type() {
		case protocol.EventChat:
			logger.Printf("tick=%d chat from=%v: %v", msg.Tick, e["from"], e["text"])
		case protocol.EventActionResult:
			if ok, _ := e["ok"].(bool); !ok {
				logger.Printf("tick=%d %v failed: %v %v", msg.Tick, e["ref"], e["code"], e["message"])
			}
		case protocol.EventContainer:
			id, _ := e["id"].(string)
			typ, x, y, z, ok := ids.ParseContainerID(id)
			if !ok {
				logger.Printf("tick=%d container with bad id %q", msg.Tick, id)
				continue
			}
			logger.Printf("tick=%d opened %s at %d,%d,%d slots=%v", msg.Tick, typ, x, y, z, e["slots"])
		}
	}
}

func runScript(conn *websocket.Conn, logger *log.Logger, mode, command string, spawn [3]float64) {
	chest := [3]int{int(spawn[0]) + 1, int(spawn[1]), int(spawn[2])}
	send := func(inst ...protocol.InstantReq) {
		act := protocol.ActMsg{Type: protocol.TypeAct, ProtocolVersion: protocol.Version, Instants: inst}
		if err := conn.WriteJSON(act); err != nil {
			logger.Printf("send ACT: %v", err)
		}
		time.Sleep(200 * time.Millisecond)
	}

	send(
		protocol.InstantReq{ID: "place", Type: protocol.InstantPlace, Target: chest, Block: "minecraft:chest"},
		protocol.InstantReq{ID: "put1", Type: protocol.InstantPut, Target: chest, Slot: 2, Item: "minecraft:dirt", Count: 12},
		protocol.InstantReq{ID: "put2", Type: protocol.InstantPut, Target: chest, Slot: 5, Item: "minecraft:apple", Count: 40},
		protocol.InstantReq{ID: "put3", Type: protocol.InstantPut, Target: chest, Slot: 9, Item: "minecraft:apple", Count: 40},
		protocol.InstantReq{ID: "put4", Type: protocol.InstantPut, Target: chest, Slot: 20, Item: "minecraft:cobblestone", Count: 7},
	)

	switch mode {
	case "walk":
		send(protocol.InstantReq{ID: "open", Type: protocol.InstantInteract, Target: chest})
		away := [3]float64{spawn[0] + 10, spawn[1], spawn[2]}
		send(protocol.InstantReq{ID: "walk", Type: protocol.InstantMove, Pos: away})
		logger.Printf("walked to %v; waiting for the organizer", away)
	case "command":
		send(protocol.InstantReq{ID: "cmd", Type: protocol.InstantSay, Text: command})
	case "idle":
	default:
		logger.Printf("unknown mode %q", mode)
		return
	}

	// Reopen to print the organized contents.
	time.Sleep(2 * time.Second)
	send(protocol.InstantReq{ID: "check", Type: protocol.InstantMove, Pos: spawn})
	send(protocol.InstantReq{ID: fmt.Sprintf("reopen_%d", time.Now().Unix()), Type: protocol.InstantInteract, Target: chest})
}
