package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/shroukgbr89/parallel/internal/constants"
	"github.com/shroukgbr89/parallel/internal/server"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func (c *cli) serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "启动 HTTP 服务",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return c.serve(ctx)
		},
	}
}

// serve 启动服务，收到退出信号后优雅关闭
func (c *cli) serve(ctx context.Context) error {
	a, err := newApp(ctx, c.cfg)
	if err != nil {
		return err
	}
	a.startBackground(ctx)
	defer a.close()

	// 初始化路由
	r := server.SetupRoutes(c.cfg, a.handler(), a.authMiddleware())
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", c.cfg.GetInt("server.port")),
		Handler:      r,
		ReadTimeout:  constants.DefaultReadTimeout,
		WriteTimeout: constants.DefaultWriteTimeout,
		IdleTimeout:  constants.DefaultIdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		zap.L().Info("服务启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	zap.L().Info("正在关闭服务")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zap.L().Error("关闭服务失败", zap.Error(err))
		return err
	}
	zap.L().Info("服务已关闭")
	return nil
}
