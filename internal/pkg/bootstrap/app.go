// internal/pkg/bootstrap/app.go
package bootstrap

import (
	"context"
	"net"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"vernont/internal/pkg/config"
	"vernont/internal/pkg/nacos"
	"vernont/internal/tracing"
)

// AppCtx 传给各服务的路由注册回调。
type AppCtx struct {
	Mux *http.ServeMux
}

// AppInfo 包含了启动服务所需的全部特定信息。
type AppInfo struct {
	Config           *config.Config
	RegisterHandlers func(appCtx AppCtx)
	// OnShutdown 在 HTTP 服务器停止后按注册的相反顺序执行，用于关闭连接池等资源。
	OnShutdown []func(ctx context.Context) error
}

// StartService 封装了通用的启动和优雅关停逻辑。
func StartService(info AppInfo) {
	cfg := info.Config
	serviceName := cfg.Service.Name

	tp, err := tracing.InitTracerProvider(serviceName, cfg.Jaeger.Endpoint)
	if err != nil {
		log.Fatal().Err(err).Msg("初始化 tracer provider 失败")
	}

	// Nacos 未配置时跳过注册，本地开发不依赖注册中心
	var naming *nacos.Client
	var outboundIP string
	if cfg.Nacos.ServerAddrs != "" {
		naming, err = nacos.NewClient(cfg.Nacos.ServerAddrs, cfg.Nacos.Namespace, cfg.Nacos.Group)
		if err != nil {
			log.Fatal().Err(err).Msg("初始化 nacos 客户端失败")
		}
		outboundIP, err = getOutboundIP()
		if err != nil {
			log.Fatal().Err(err).Msg("获取本机出口 IP 失败")
		}
		if err := naming.RegisterServiceInstance(serviceName, outboundIP, cfg.Service.Port); err != nil {
			log.Fatal().Err(err).Msg("注册服务到 nacos 失败")
		}
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	if info.RegisterHandlers != nil {
		info.RegisterHandlers(AppCtx{Mux: mux})
	}

	server := &http.Server{Addr: ":" + strconv.Itoa(cfg.Service.Port), Handler: mux}

	runCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		log.Info().Str("service", serviceName).Int("port", cfg.Service.Port).Msg("服务启动")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		return nil
	})

	<-gctx.Done()
	log.Info().Str("service", serviceName).Msg("开始关停")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// 关停顺序：先摘流量，再停服务器，最后释放资源
	if naming != nil {
		if err := naming.DeregisterServiceInstance(serviceName, outboundIP, cfg.Service.Port); err != nil {
			log.Error().Err(err).Msg("从 nacos 注销失败")
		}
	}

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("关闭 HTTP 服务器失败")
	}

	for i := len(info.OnShutdown) - 1; i >= 0; i-- {
		if err := info.OnShutdown[i](ctx); err != nil {
			log.Error().Err(err).Msg("关停清理失败")
		}
	}

	if err := tp.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("关闭 tracer provider 失败")
	}

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("HTTP 服务器异常退出")
	}

	log.Info().Str("service", serviceName).Msg("服务已优雅关停")
}

// getOutboundIP 通过一次 UDP 拨号探测本机出口 IP，并不会真的发包。
func getOutboundIP() (string, error) {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return "", err
	}
	defer conn.Close()
	return conn.LocalAddr().(*net.UDPAddr).IP.String(), nil
}
