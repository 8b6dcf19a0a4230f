// Package ipc broadcasts the current lyric line to connected front-ends over
// a unix socket. A flock-guarded lock file keeps the daemon single-instance.
package ipc

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"sync"
	"syscall"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var logger = log.With().Str("component", "ipc").Logger()

// Server accepts front-end connections and pushes every lyric update to all
// of them. New clients immediately receive the current line so they never
// start blank.
type Server struct {
	socketPath string
	listener   net.Listener

	clients     map[net.Conn]string // conn -> client id, for logs
	clientsLock sync.Mutex

	currentLine string
	lineLock    sync.Mutex

	lockFile     *os.File
	lockFilePath string
}

func NewServer(socketPath string) *Server {
	return &Server{
		socketPath:   socketPath,
		clients:      make(map[net.Conn]string),
		lockFilePath: socketPath + ".lock",
	}
}

// cleanStaleLock removes a leftover lock file whose owning process is gone.
func (s *Server) cleanStaleLock() {
	content, err := os.ReadFile(s.lockFilePath)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn().Err(err).Msg("Failed to read lock file, removing it")
			os.Remove(s.lockFilePath)
		}
		return
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(content)))
	if err != nil {
		logger.Warn().Msg("Lock file holds no valid PID, removing it")
		os.Remove(s.lockFilePath)
		return
	}

	// kill(pid, 0) checks existence without signalling.
	if syscall.Kill(pid, 0) != nil {
		logger.Info().Int("old_pid", pid).Msg("Lock holder is gone, removing stale lock")
		os.Remove(s.lockFilePath)
		return
	}

	logger.Info().Int("existing_pid", pid).Msg("Another instance is still running")
}

func (s *Server) acquireLock() error {
	s.cleanStaleLock()

	file, err := os.OpenFile(s.lockFilePath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to create lock file: %w", err)
	}

	if err := syscall.Flock(int(file.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		file.Close()
		if err == syscall.EWOULDBLOCK {
			return fmt.Errorf("another lyricsync instance is already running")
		}
		return fmt.Errorf("failed to acquire lock: %w", err)
	}

	if _, err := fmt.Fprintf(file, "%d\n", os.Getpid()); err != nil {
		syscall.Flock(int(file.Fd()), syscall.LOCK_UN)
		file.Close()
		return fmt.Errorf("failed to write PID to lock file: %w", err)
	}

	s.lockFile = file
	logger.Info().Str("lock_file", s.lockFilePath).Int("pid", os.Getpid()).Msg("Acquired process lock")
	return nil
}

func (s *Server) releaseLock() {
	if s.lockFile == nil {
		return
	}
	syscall.Flock(int(s.lockFile.Fd()), syscall.LOCK_UN)
	s.lockFile.Close()
	os.Remove(s.lockFilePath)
	s.lockFile = nil
}

// Start acquires the instance lock and begins accepting connections.
func (s *Server) Start() error {
	if err := s.acquireLock(); err != nil {
		return err
	}

	if err := os.RemoveAll(s.socketPath); err != nil {
		s.releaseLock()
		return err
	}

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		s.releaseLock()
		return err
	}
	s.listener = listener

	logger.Info().Str("socket_path", s.socketPath).Msg("IPC server listening")
	go s.acceptLoop()
	return nil
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			logger.Error().Err(err).Msg("Failed to accept IPC connection")
			return
		}
		go s.handleClient(conn)
	}
}

func (s *Server) handleClient(conn net.Conn) {
	clientID := uuid.NewString()

	s.clientsLock.Lock()
	s.clients[conn] = clientID
	s.clientsLock.Unlock()

	logger.Info().Str("client_id", clientID).Msg("Client connected")

	s.lineLock.Lock()
	line := s.currentLine
	s.lineLock.Unlock()
	if _, err := conn.Write([]byte(line)); err != nil {
		logger.Error().Err(err).Str("client_id", clientID).Msg("Failed to send current line")
	}

	// Block until the client hangs up; clients only read.
	buf := make([]byte, 1)
	for {
		if _, err := conn.Read(buf); err != nil {
			break
		}
	}

	s.clientsLock.Lock()
	delete(s.clients, conn)
	s.clientsLock.Unlock()
	conn.Close()
	logger.Info().Str("client_id", clientID).Msg("Client disconnected")
}

// Broadcast pushes a line to every connected client and remembers it for
// clients that connect later.
func (s *Server) Broadcast(line string) {
	s.lineLock.Lock()
	s.currentLine = line
	s.lineLock.Unlock()

	s.clientsLock.Lock()
	defer s.clientsLock.Unlock()

	payload := []byte(line)
	for conn, clientID := range s.clients {
		if _, err := conn.Write(payload); err != nil {
			logger.Error().Err(err).Str("client_id", clientID).Msg("Failed to write to client, removing")
			conn.Close()
			delete(s.clients, conn)
		}
	}
}

func (s *Server) Close() {
	if s.listener != nil {
		s.listener.Close()
	}
	s.releaseLock()
}
