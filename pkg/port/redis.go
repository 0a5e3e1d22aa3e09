// Package port exposes the skipdb store over the Redis protocol. The
// transport only ever calls the public store operations; it owns no ordering
// or locking logic of its own.
package port

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"strings"

	"github.com/momu/skipdb/pkg/storage"
	"github.com/tidwall/redcon"
)

const RedisOk = "OK"

var address = flag.String("address", ":6380", "The ip:port to listen on for Redis protocol.")

// redisCommand represents a Redis command with its arguments.
type redisCommand struct {
	command string
	args    []string
}

// redisOutput conforms to a real Redis server output on non pub / sub commands.
type redisOutput struct {
	closeConnection bool    // Closes the connection if true.
	writeNil        bool    // Writes a nil value if true.
	err             *string // Error to return if set.
	writeInt        *int    // Writes an integer value if set.
	writeString     string  // Writes a string value if set.
}

func closeRedisConnection(msg string) redisOutput {
	return redisOutput{writeString: msg, closeConnection: true}
}

func writeRedisNil() redisOutput {
	return redisOutput{writeNil: true}
}

func writeRedisInt(i int) redisOutput {
	return redisOutput{writeInt: &i}
}

func writeRedisString(s string) redisOutput {
	return redisOutput{writeString: s}
}

func writeRedisError(err error) redisOutput {
	msg := "ERR " + err.Error()
	return redisOutput{err: &msg}
}

func wrongArgsError(command string) redisOutput {
	return writeRedisError(fmt.Errorf("wrong number of arguments for '%s' command", command))
}

type redisHandler struct {
	store storage.KeyValueHolder
}

// newRedisHandler creates a new redisHandler.
func newRedisHandler(store storage.KeyValueHolder) (*redisHandler, error) {
	if store == nil {
		return nil, errors.New("expected a non-nil storage")
	}
	return &redisHandler{store: store}, nil
}

func (rh *redisHandler) handle(cmd redisCommand) redisOutput {
	switch cmd.command {
	case "PING":
		return writeRedisString("PONG")
	case "QUIT":
		return closeRedisConnection(RedisOk)
	case "SET":
		if len(cmd.args) != 2 {
			return wrongArgsError("SET")
		}
		if err := rh.store.Set(cmd.args[0] /*key*/, cmd.args[1] /*value*/); err != nil {
			return writeRedisError(err)
		}
		return writeRedisString(RedisOk)
	case "GET":
		if len(cmd.args) != 1 {
			return wrongArgsError("GET")
		}
		if value, err := rh.store.Get(cmd.args[0]); errors.Is(err, storage.ErrKeyNotFound) {
			return writeRedisNil()
		} else if err != nil {
			return writeRedisError(err)
		} else {
			return writeRedisString(value)
		}
	case "EXISTS":
		if len(cmd.args) < 1 {
			return wrongArgsError("EXISTS")
		}
		existingCount := 0
		for _, key := range cmd.args {
			if rh.store.Contains(key) {
				existingCount++
			}
		}
		return writeRedisInt(existingCount)
	case "DEL":
		if len(cmd.args) < 1 {
			return wrongArgsError("DEL")
		}
		deletedCount := 0
		for _, key := range cmd.args {
			if err := rh.store.Delete(key); err == nil {
				deletedCount++
			}
		}
		return writeRedisInt(deletedCount)
	case "DBSIZE":
		return writeRedisInt(rh.store.Len())
	default:
		return writeRedisError(fmt.Errorf("unknown command '%s'", cmd.command))
	}
}

// writeOutput replays the handler result onto the connection.
func writeOutput(conn redcon.Conn, output redisOutput) {
	switch {
	case output.closeConnection:
		conn.WriteString(output.writeString)
		if err := conn.Close(); err != nil {
			slog.Error("Failed to close connection.", "error", err)
		}
	case output.writeNil:
		conn.WriteNull()
	case output.err != nil:
		conn.WriteError(*output.err)
	case output.writeInt != nil:
		conn.WriteInt(*output.writeInt)
	default:
		conn.WriteString(output.writeString)
	}
}

// RunRedisServer starts a Redis protocol server that interacts with the provided KeyValueHolder storage.
// It blocks until the server fails or `ctx` is cancelled, at which point both the server and the store are closed.
func RunRedisServer(ctx context.Context, store storage.KeyValueHolder) error {
	if *address == "" {
		return errors.New("expected a non-empty --address flag")
	}

	redisHandler, err := newRedisHandler(store)
	if err != nil {
		return fmt.Errorf("failed to create a new redis handler: %w", err)
	}

	redisServer := redcon.NewServerNetwork("tcp" /*net*/, *address,
		/*handler*/ func(conn redcon.Conn, cmd redcon.Command) {
			// Convert redcon.Command to redisCommand.
			command := redisCommand{command: strings.ToUpper(string(cmd.Args[0])), args: make([]string, len(cmd.Args)-1)}
			for i := 1; i < len(cmd.Args); i++ {
				command.args[i-1] = string(cmd.Args[i])
			}
			writeOutput(conn, redisHandler.handle(command))
		},
		/*accept*/ func(conn redcon.Conn) bool {
			return true // Accept all connections.
		},
		/*close*/ func(conn redcon.Conn, err error) {
			if err != nil && !errors.Is(err, context.Canceled) {
				slog.Debug("Connection closed.", "addr", conn.RemoteAddr(), "error", err)
			}
		})

	serverErrSignal := make(chan error, 1)
	go func() {
		if err := redisServer.ListenAndServe(); err != nil {
			serverErrSignal <- err
		}
		close(serverErrSignal)
	}()

	select {
	case <-ctx.Done():
		serverErr := redisServer.Close()
		storeErr := store.Close()
		if exitErr := errors.Join(serverErr, storeErr); exitErr != nil {
			return fmt.Errorf("failed to close skipdb: %w", exitErr)
		}
	case err := <-serverErrSignal:
		return fmt.Errorf("redis server stopped unexpectedly: %w", err)
	}

	return nil // Exited with no errors.
}
