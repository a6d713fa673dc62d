package main

import (
	"bufio"
	"bytes"
	"chatwav/domain"
	"chatwav/domain/event"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/gookit/color"
	"github.com/gorilla/websocket"
)

// Interactive websocket client. Lines typed on stdin are sent to the room,
// "/typing", "/stop", "/leave" and "/join <roomId>" send the matching event.
func main() {
	server := flag.String("server", "http://localhost:3001", "Base URL of the chatwav server")
	email := flag.String("email", "", "Login email, ignored when -token is set")
	password := flag.String("password", "", "Login password")
	token := flag.String("token", "", "Bearer token")
	room := flag.String("room", "", "Room to join on connect")
	flag.Parse()

	if *token == "" {
		t, err := login(*server, *email, *password)
		if err != nil {
			log.Fatalf("Login failed: %v", err)
		}
		*token = t
	}

	conn, err := dial(*server, *token)
	if err != nil {
		log.Fatalf("Unable to connect: %v", err)
	}
	defer conn.Close()
	color.Green.Println("Connected")

	go printEvents(conn)

	current := domain.RoomID(*room)
	if current != "" {
		send(conn, event.JoinRoom{RoomID: current})
	}

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "/join "):
			current = domain.RoomID(strings.TrimSpace(strings.TrimPrefix(line, "/join ")))
			send(conn, event.JoinRoom{RoomID: current})
		case current == "":
			color.Yellow.Println("Join a room first: /join <roomId>")
		case line == "/leave":
			send(conn, event.LeaveRoom{RoomID: current})
			current = ""
		case line == "/typing":
			send(conn, event.Typing{RoomID: current})
		case line == "/stop":
			send(conn, event.StopTyping{RoomID: current})
		default:
			send(conn, event.SendMessage{RoomID: current, Content: line})
		}
	}
}

func login(server, email, password string) (string, error) {
	body, _ := json.Marshal(domain.LoginRequest{Email: email, Password: password})
	resp, err := http.Post(server+"/api/auth/login", "application/json", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var failure struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&failure)
		return "", fmt.Errorf("%s: %s", resp.Status, failure.Error)
	}
	var result domain.AuthResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	color.Cyan.Printf("Logged in as %s\n", result.User.Username)
	return result.Token, nil
}

func dial(server, token string) (*websocket.Conn, error) {
	u, err := url.Parse(server)
	if err != nil {
		return nil, err
	}
	u.Scheme = strings.Replace(u.Scheme, "http", "ws", 1)
	u.Path = "/ws"

	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)
	conn, resp, err := websocket.DefaultDialer.Dial(u.String(), header)
	if err != nil && resp != nil {
		return nil, fmt.Errorf("%w (%s)", err, resp.Status)
	}
	return conn, err
}

func send(conn *websocket.Conn, cmd event.Command) {
	frame, err := event.EncodeCommand(cmd)
	if err != nil {
		color.Red.Printf("Encode failed: %v\n", err)
		return
	}
	if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		color.Red.Printf("Write failed: %v\n", err)
	}
}

func printEvents(conn *websocket.Conn) {
	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			color.Red.Printf("Connection closed: %v\n", err)
			os.Exit(1)
		}
		var envelope event.Envelope
		if err := json.Unmarshal(frame, &envelope); err != nil {
			color.Red.Printf("Bad frame: %s\n", frame)
			continue
		}
		render(envelope)
	}
}

func render(envelope event.Envelope) {
	switch envelope.Event {
	case event.NewMessageName:
		var m event.NewMessage
		_ = json.Unmarshal(envelope.Data, &m)
		fmt.Printf("%s %s %s\n",
			color.Gray.Sprint(m.CreatedAt.Local().Format("15:04:05")),
			color.Bold.Sprint(m.User.Username+":"),
			m.Content)
	case event.RoomUsersName:
		var ru event.RoomUsers
		_ = json.Unmarshal(envelope.Data, &ru)
		names := make([]string, 0, len(ru.Users))
		for _, u := range ru.Users {
			names = append(names, u.Username)
		}
		color.Cyan.Printf("[%s] online: %s\n", ru.RoomID, strings.Join(names, ", "))
	case event.ErrorName:
		var e event.Error
		_ = json.Unmarshal(envelope.Data, &e)
		color.Red.Printf("error: %s\n", e.Message)
	case event.UserOnlineName, event.UserOfflineName, event.UserTypingName, event.StopTypingName:
		color.Yellow.Printf("%s %s\n", envelope.Event, envelope.Data)
	default:
		color.Gray.Printf("%s %s\n", envelope.Event, envelope.Data)
	}
}
