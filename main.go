package main

import (
	"fmt"
	"net"
	"os"
	"time"

	"github.com/go-i2p/linklayer/lib/config"
	"github.com/go-i2p/linklayer/lib/crypto"
	"github.com/go-i2p/linklayer/lib/link"
	"github.com/go-i2p/linklayer/lib/util"
	"github.com/go-i2p/linklayer/lib/util/signals"
	"github.com/go-i2p/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var log = logger.GetGoI2PLogger()

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "linklayer",
		Short:         "Runs a standalone secure link-layer node",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runNode,
	}
	cmd.PersistentFlags().StringVar(&config.CfgFile, "config", "", "config file (default $HOME/.linklayer/config.yaml)")
	cmd.Flags().String("listen", "", "UDP address to listen on, overrides config")
	cmd.Flags().String("identity", "", "path to identity file, overrides config")
	viper.BindPFlag("listen_addr", cmd.Flags().Lookup("listen"))
	viper.BindPFlag("identity_file", cmd.Flags().Lookup("identity"))
	return cmd
}

func runNode(cmd *cobra.Command, args []string) error {
	config.InitConfig()
	cfg := config.NewLinkConfigFromViper()

	id, err := cfg.LoadOrGenerateIdentity()
	if err != nil {
		return fmt.Errorf("loading identity: %w", err)
	}
	transportPub, err := id.TransportKey.PublicKey()
	if err != nil {
		return fmt.Errorf("deriving transport public key: %w", err)
	}
	signingPub, err := id.SigningKey.Public()
	if err != nil {
		return fmt.Errorf("deriving signing public key: %w", err)
	}
	localContact, err := link.SignRouterContact(signingPub.(crypto.Ed25519PublicKey), transportPub, id.SigningKey)
	if err != nil {
		return fmt.Errorf("signing router contact: %w", err)
	}

	udpAddr, err := net.ResolveUDPAddr("udp", cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("resolving listen address %q: %w", cfg.ListenAddr, err)
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return fmt.Errorf("binding udp socket on %s: %w", udpAddr, err)
	}
	util.RegisterCloser(conn)
	defer util.CloseAll()

	engine := link.NewUTPEngine(conn)
	mgr := link.NewManager(engine, conn, id.TransportKey, localContact, loggingRouter{}, cfg.SessionTimeout, cfg.MaxReassembledMessageSize, cfg.KeepaliveEnabled)

	stop := make(chan struct{})
	signals.RegisterPreShutdownHandler(func() {
		log.Debug("draining pending session writes before shutdown")
		mgr.Pump()
	})
	signals.RegisterInterruptHandler(func() { close(stop) })
	signals.RegisterReloadHandler(func() {
		log.Debug("reloading configuration")
		config.UpdateLinkConfig()
	})
	go signals.Handle()

	go readLoop(conn, mgr)

	log.Debugf("link layer listening on %s", conn.LocalAddr())

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			log.Debug("shutting down link layer")
			return mgr.Stop()
		case <-ticker.C:
			mgr.Pump()
			mgr.Tick()
		}
	}
}

// readLoop forwards inbound datagrams to the manager's engine; uTP itself
// demultiplexes by remote endpoint and dispatches to the right session.
func readLoop(conn *net.UDPConn, mgr *link.Manager) {
	buf := make([]byte, 65535)
	for {
		n, addr, err := conn.ReadFromUDP(buf)
		if err != nil {
			return
		}
		mgr.RecvFrom(addr, buf[:n])
	}
}

// loggingRouter is the default upstream Router: it has no routing logic of
// its own, just enough to observe and log session lifecycle and delivered
// messages when running as a standalone node rather than embedded in a
// larger router.
type loggingRouter struct{}

func (loggingRouter) HandleRecvLinkMessageBuffer(sess *link.Session, buf []byte) bool {
	log.Debugf("received %d bytes from %s", len(buf), sess.RemoteAddr())
	return true
}

func (loggingRouter) HandleLinkSessionEstablished(rc link.RouterContact) {
	log.Debugf("session established with %x", rc.SigningKey)
}
