package e2e

import (
	"bytes"
	"chatwav/domain/event"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gookit/color"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/suite"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

type BaseSuite struct {
	suite.Suite
	Config Config
	client *http.Client
}

// SetupSuite loads the environment configuration and skips when no server is configured
func (s *BaseSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)
	if s.Config.HTTPAddr == "" {
		s.T().Skip("E2E_HTTP_ADDR not set")
	}
	s.client = &http.Client{Timeout: 10 * time.Second}
}

// Step prints a header for a test step
func (s *BaseSuite) Step(name string) {
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	s.T().Log(header)
}

// Call sends a JSON request to the REST API and decodes the answer into out.
func (s *BaseSuite) Call(method, path, token string, body, out any) int {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(data)
	}
	r, err := http.NewRequest(method, strings.TrimRight(s.Config.HTTPAddr, "/")+path, reader)
	s.Require().NoError(err)
	r.Header.Set("Content-Type", "application/json")
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := s.client.Do(r)
	s.Require().NoError(err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)

	s.T().Logf("HTTP %s %s [%d] in %v", method, path, resp.StatusCode, time.Since(start))
	if s.Config.DebugJSON {
		s.T().Logf("RESPONSE:\n%s", data)
	}
	if out != nil && len(data) > 0 {
		s.Require().NoError(json.Unmarshal(data, out))
	}
	return resp.StatusCode
}

// Dial opens a websocket authenticated with token.
func (s *BaseSuite) Dial(token string) *websocket.Conn {
	u, err := url.Parse(s.Config.HTTPAddr)
	s.Require().NoError(err)
	u.Scheme = strings.Replace(u.Scheme, "http", "ws", 1)
	u.Path = "/ws"

	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)
	conn, _, err := websocket.DefaultDialer.Dial(u.String(), header)
	s.Require().NoError(err)
	return conn
}

func (s *BaseSuite) Send(conn *websocket.Conn, cmd event.Command) {
	frame, err := event.EncodeCommand(cmd)
	s.Require().NoError(err)
	s.Require().NoError(conn.WriteMessage(websocket.TextMessage, frame))
}

// Expect reads frames until one named name arrives, then decodes its data.
func (s *BaseSuite) Expect(conn *websocket.Conn, name event.Name, out any) {
	s.Require().NoError(conn.SetReadDeadline(time.Now().Add(5 * time.Second)))
	for {
		_, frame, err := conn.ReadMessage()
		s.Require().NoError(err, "waiting for %s", name)
		if s.Config.DebugJSON {
			s.T().Logf("FRAME: %s", frame)
		}
		var envelope event.Envelope
		s.Require().NoError(json.Unmarshal(frame, &envelope))
		if envelope.Event == name {
			if out != nil {
				s.Require().NoError(json.Unmarshal(envelope.Data, out))
			}
			return
		}
	}
}

// WithHealth provides a gRPC health client, skipped when E2E_GRPC_ADDR is empty
func (s *BaseSuite) WithHealth(fn func(ctx context.Context, client healthpb.HealthClient)) {
	if s.Config.GRPCAddr == "" {
		s.T().Skip("E2E_GRPC_ADDR not set")
	}
	conn, err := grpc.NewClient(s.Config.GRPCAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	s.Require().NoError(err)
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	fn(ctx, healthpb.NewHealthClient(conn))
}
