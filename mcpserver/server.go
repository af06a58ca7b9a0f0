// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package mcpserver

import (
	"context"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/poiesic/careerfit"
	"github.com/poiesic/careerfit/core"
)

// Version is the MCP server version.
const Version = "1.0.0"

// Service is the subset of careerfit.Navigator the tools call.
type Service interface {
	Analyze(ctx context.Context, req *careerfit.Request) (*careerfit.Submission, error)
	Get(ctx context.Context, id string) (*core.AnalysisRecord, error)
	Summary(ctx context.Context, id string) (*core.AnalysisSummary, error)
	Index(ctx context.Context, path string, sourceType core.SourceType) (core.ContentHash, error)
	IndexText(ctx context.Context, text string, sourceType core.SourceType) (core.ContentHash, error)
	Search(ctx context.Context, query string, hash core.ContentHash, topK int) ([]core.SearchResult, error)
}

// Server is the careerfit MCP server.
type Server struct {
	svc    Service
	server *mcp.Server
}

// NewServer creates a server with every tool registered.
func NewServer(svc Service) (*Server, error) {
	if svc == nil {
		return nil, ErrServiceRequired
	}
	s := &Server{
		svc: svc,
		server: mcp.NewServer(&mcp.Implementation{
			Name:    "careerfit",
			Version: Version,
		}, nil),
	}
	s.registerTools()
	return s, nil
}

// Run serves over stdio until ctx is canceled or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// Handler returns a streamable HTTP handler for mounting next to the REST API.
func (s *Server) Handler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(_ *http.Request) *mcp.Server {
		return s.server
	}, nil)
}
