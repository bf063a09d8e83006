package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"regexp"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/FalconNL93/DoorbellSvc/cache"
	"github.com/FalconNL93/DoorbellSvc/log"
	"github.com/FalconNL93/DoorbellSvc/player"
)

const (
	// maxRequestBytes caps one inbound payload; anything larger is
	// answered with an error before parsing.
	maxRequestBytes = 64 * 1024

	// readTimeout bounds how long a stalled client can hold a handler.
	readTimeout = 2 * time.Second
)

var safeNameRe = regexp.MustCompile(`^[A-Za-z0-9._-]{1,64}$`)

// IsSafeFileName reports whether name is a plain basename the engine may
// resolve: no separators, no traversal, bounded length.
func IsSafeFileName(name string) bool {
	return safeNameRe.MatchString(name)
}

// request is one wire command. Pointer fields distinguish "absent" from
// zero so defaults apply only when the client omitted them.
type request struct {
	Cmd     string `json:"cmd"`
	File    string `json:"file"`
	Volume  *int   `json:"volume"`
	Repeat  *int   `json:"repeat"`
	DelayMS *int   `json:"delay_ms"`
	Queue   int    `json:"queue"`
	FFmpeg  *int   `json:"ffmpeg"`
}

type response struct {
	OK     bool   `json:"ok"`
	Error  string `json:"error,omitempty"`
	Detail string `json:"detail,omitempty"`
	Reason string `json:"reason,omitempty"`
	Pong   int    `json:"pong,omitempty"`
}

type prewarmResponse struct {
	OK       bool   `json:"ok"`
	Error    string `json:"error,omitempty"`
	Total    int    `json:"total"`
	Built    int    `json:"built"`
	UpToDate int    `json:"up_to_date"`
	Failed   int    `json:"failed"`
}

// server accepts local connections and dispatches decoded commands to the
// engine and cache. A fixed worker pool bounds concurrent handlers; the
// engine's busy gate serializes the hardware behind it.
type server struct {
	cfg    config
	engine *player.Engine
	tc     cache.Transcoder

	ln  net.Listener
	sem chan struct{}
	wg  sync.WaitGroup
}

func newServer(cfg config, engine *player.Engine, tc cache.Transcoder) *server {
	return &server{
		cfg:    cfg,
		engine: engine,
		tc:     tc,
		sem:    make(chan struct{}, cfg.workers),
	}
}

func (s *server) listen() error {
	ln, err := net.Listen("tcp", s.cfg.listen)
	if err != nil {
		return err
	}
	s.ln = ln
	return nil
}

func (s *server) addr() string {
	return s.ln.Addr().String()
}

// serve runs the accept loop until the listener closes.
func (s *server) serve() {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			log.Warnf("accept: %v", err)
			continue
		}
		s.sem <- struct{}{}
		s.wg.Add(1)
		go func() {
			defer func() {
				<-s.sem
				s.wg.Done()
			}()
			s.handle(conn)
		}()
	}
}

// shutdown stops accepting and waits for in-flight handlers.
func (s *server) shutdown() {
	if s.ln != nil {
		s.ln.Close()
	}
	s.wg.Wait()
}

func (s *server) handle(conn net.Conn) {
	defer conn.Close()
	id := uuid.NewString()

	conn.SetReadDeadline(time.Now().Add(readTimeout))

	lr := &io.LimitedReader{R: conn, N: maxRequestBytes + 1}
	var req request
	if err := json.NewDecoder(lr).Decode(&req); err != nil {
		if lr.N == 0 {
			log.Request(id, "", "request too large")
			writeJSON(conn, response{Error: "request too large"})
			return
		}
		log.Request(id, "", "bad request")
		writeJSON(conn, response{Error: "bad request", Detail: err.Error()})
		return
	}

	switch req.Cmd {
	case "ping":
		log.Request(id, "ping", "ok")
		writeJSON(conn, response{OK: true, Pong: 1})
	case "play":
		s.handlePlay(conn, id, req)
	case "prewarm":
		s.handlePrewarm(conn, id, req)
	default:
		log.Request(id, req.Cmd, "unknown command")
		writeJSON(conn, response{Error: "unknown command"})
	}
}

func (s *server) handlePlay(conn net.Conn, id string, req request) {
	if !IsSafeFileName(req.File) {
		log.Request(id, "play", "invalid file")
		writeJSON(conn, response{Error: "invalid file"})
		return
	}

	pr := player.Request{
		File:   req.File,
		Volume: player.DefaultVolume,
		Repeat: player.DefaultRepeat,
		Queue:  req.Queue != 0,
	}
	if req.Volume != nil {
		pr.Volume = *req.Volume
	}
	if req.Repeat != nil {
		pr.Repeat = *req.Repeat
	}
	if req.DelayMS != nil {
		pr.DelayMS = *req.DelayMS
	}

	err := s.engine.PlaySound(pr)
	switch {
	case err == nil:
		log.Request(id, "play", "ok")
		writeJSON(conn, response{OK: true})
	case errors.Is(err, player.ErrBusy):
		log.Request(id, "play", "busy")
		writeJSON(conn, response{Error: "busy", Reason: "busy"})
	case errors.Is(err, player.ErrNotFound):
		log.Request(id, "play", "not found")
		writeJSON(conn, response{Error: "not found"})
	default:
		log.Request(id, "play", "failed: "+err.Error())
		writeJSON(conn, response{Error: "playback failed", Detail: err.Error()})
	}
}

func (s *server) handlePrewarm(conn net.Conn, id string, req request) {
	enabled := s.cfg.transcode
	if req.FFmpeg != nil && *req.FFmpeg == 0 {
		enabled = false
	}

	stats, err := cache.Prewarm(context.Background(), s.cfg.soundsDir, s.cfg.cacheDir, s.tc, enabled)
	if err != nil {
		log.Request(id, "prewarm", "failed: "+err.Error())
		writeJSON(conn, prewarmResponse{Error: "prewarm failed"})
		return
	}
	log.Request(id, "prewarm", "ok")
	writeJSON(conn, prewarmResponse{
		OK:       true,
		Total:    stats.Total,
		Built:    stats.Built,
		UpToDate: stats.UpToDate,
		Failed:   stats.Failed,
	})
}

func writeJSON(conn net.Conn, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	conn.Write(append(data, '\n'))
}
