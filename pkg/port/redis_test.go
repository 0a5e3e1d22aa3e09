package port

import (
	"testing"

	"github.com/momu/skipdb/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// handleCommand runs a single command through a fresh handler-style call.
func handleCommand(t *testing.T, handler *redisHandler, command string, args ...string) redisOutput {
	t.Helper()
	return handler.handle(redisCommand{command: command, args: args})
}

func TestRedisHandler(t *testing.T) {
	store := storage.NewStore()
	t.Cleanup(func() { assert.NoError(t, store.Close()) })
	handler, err := newRedisHandler(store)
	require.NoError(t, err)

	t.Run("ping", func(t *testing.T) {
		assert.Equal(t, "PONG", handleCommand(t, handler, "PING").writeString)
	})
	t.Run("quit_closes_connection", func(t *testing.T) {
		output := handleCommand(t, handler, "QUIT")
		assert.True(t, output.closeConnection)
		assert.Equal(t, RedisOk, output.writeString)
	})
	t.Run("set_and_get", func(t *testing.T) {
		assert.Equal(t, RedisOk, handleCommand(t, handler, "SET", "k1", "v1").writeString)
		assert.Equal(t, "v1", handleCommand(t, handler, "GET", "k1").writeString)
	})
	t.Run("get_missing_writes_nil", func(t *testing.T) {
		assert.True(t, handleCommand(t, handler, "GET", "missing").writeNil)
	})
	t.Run("exists_counts_present_keys", func(t *testing.T) {
		assert.Equal(t, RedisOk, handleCommand(t, handler, "SET", "k2", "v2").writeString)
		output := handleCommand(t, handler, "EXISTS", "k1", "k2", "missing")
		require.NotNil(t, output.writeInt)
		assert.Equal(t, 2, *output.writeInt)
	})
	t.Run("dbsize", func(t *testing.T) {
		output := handleCommand(t, handler, "DBSIZE")
		require.NotNil(t, output.writeInt)
		assert.Equal(t, store.Len(), *output.writeInt)
	})
	t.Run("del_counts_removed_keys", func(t *testing.T) {
		output := handleCommand(t, handler, "DEL", "k1", "k2", "missing")
		require.NotNil(t, output.writeInt)
		assert.Equal(t, 2, *output.writeInt)
		assert.True(t, handleCommand(t, handler, "GET", "k1").writeNil)
	})
	t.Run("wrong_arg_counts", func(t *testing.T) {
		for _, command := range []redisCommand{
			{command: "SET", args: []string{"only-key"}},
			{command: "GET", args: nil},
			{command: "DEL", args: nil},
			{command: "EXISTS", args: nil},
		} {
			output := handler.handle(command)
			require.NotNilf(t, output.err, "Expected an error output for %q", command.command)
			assert.Contains(t, *output.err, "wrong number of arguments")
		}
	})
	t.Run("unknown_command", func(t *testing.T) {
		output := handleCommand(t, handler, "SUBSCRIBE", "chan")
		require.NotNil(t, output.err)
		assert.Contains(t, *output.err, "unknown command")
	})
}

func TestNewRedisHandler_NilStore(t *testing.T) {
	_, err := newRedisHandler(nil)
	assert.Error(t, err)
}
