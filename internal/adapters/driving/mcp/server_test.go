package mcp

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServer(t *testing.T) {
	t.Run("requires rag", func(t *testing.T) {
		server, err := NewServer(&Ports{})
		assert.ErrorIs(t, err, ErrMissingRAGService)
		assert.Nil(t, server)
	})

	t.Run("version option", func(t *testing.T) {
		server, err := NewServer(&Ports{RAG: &mockRAGService{}}, WithVersion("1.4.0"))
		require.NoError(t, err)
		assert.Equal(t, "1.4.0", server.version)

		server, err = NewServer(&Ports{RAG: &mockRAGService{}}, WithVersion(""))
		require.NoError(t, err)
		assert.Equal(t, "dev", server.version)
	})
}

// connect attaches an in-memory client to s.
func connect(t *testing.T, s *Server) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()
	serverT, clientT := mcp.NewInMemoryTransports()

	serverSession, err := s.server.Connect(ctx, serverT, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = serverSession.Close() })

	client := mcp.NewClient(&mcp.Implementation{Name: "test", Version: "0"}, nil)
	session, err := client.Connect(ctx, clientT, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })
	return session
}

func toolNames(t *testing.T, session *mcp.ClientSession) []string {
	t.Helper()
	res, err := session.ListTools(context.Background(), nil)
	require.NoError(t, err)
	names := make([]string, 0, len(res.Tools))
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	return names
}

func TestServer_ToolsFollowPorts(t *testing.T) {
	askOnly, err := NewServer(&Ports{RAG: &mockRAGService{}})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"ask"}, toolNames(t, connect(t, askOnly)))

	full, err := NewServer(&Ports{
		RAG:          &mockRAGService{},
		Ingestion:    &mockIngestionService{},
		Conversation: &mockConversationService{},
		HistoryTurns: 6,
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"ask", "ingest_document", "delete_document"}, toolNames(t, connect(t, full)))
}

func TestServer_Instructions(t *testing.T) {
	server, err := NewServer(&Ports{RAG: &mockRAGService{}}, WithVersion("2.0.0"))
	require.NoError(t, err)

	info := connect(t, server).InitializeResult()
	require.NotNil(t, info)
	assert.Equal(t, "docrag", info.ServerInfo.Name)
	assert.Equal(t, "2.0.0", info.ServerInfo.Version)
	assert.Contains(t, info.Instructions, "owner_id")
}

func TestServer_RunHTTPStopsWithContext(t *testing.T) {
	server, err := NewServer(&Ports{RAG: &mockRAGService{}})
	require.NoError(t, err)

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- server.RunHTTP(ctx, addr) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * shutdownTimeout):
		t.Fatal("RunHTTP did not return")
	}
}

func TestServer_RunHTTPAddressInUse(t *testing.T) {
	server, err := NewServer(&Ports{RAG: &mockRAGService{}})
	require.NoError(t, err)

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()

	assert.Error(t, server.RunHTTP(context.Background(), l.Addr().String()))
}

func TestPorts_Validate(t *testing.T) {
	assert.ErrorIs(t, (&Ports{Ingestion: &mockIngestionService{}}).Validate(), ErrMissingRAGService)
	assert.NoError(t, (&Ports{RAG: &mockRAGService{}}).Validate())
}
