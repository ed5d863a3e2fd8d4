package main

import (
	"context"
	"net"
	"strconv"

	"github.com/go-scripts/reviews/internal/metrics"
	"github.com/go-scripts/reviews/internal/server"
)

// ServeCmd runs the HTTP service
type ServeCmd struct {
	Host string `help:"Interface to listen on."`
	Port int    `help:"Port to listen on." default:"5000" env:"PORT"`
}

func (s *ServeCmd) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

func (s *ServeCmd) Run(c *Context, ctx context.Context) error {
	checkEnvironment(c.Logger, c.Globals, s.Port)

	m := metrics.New()
	p, closeCache, err := newPipeline(c.Globals, c.Logger, m)
	if err != nil {
		return err
	}
	defer closeCache()

	srv := server.New(p, c.Logger.WithPrefix("http"), m)
	return srv.ListenAndServe(ctx, s.Addr())
}
