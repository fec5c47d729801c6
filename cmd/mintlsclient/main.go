// Command mintlsclient dials a TLS 1.2 server using the pinned
// ECDHE-RSA/ChaCha20-Poly1305/SHA-256 suite, prints the leaf certificate's
// subject once the handshake completes, then pipes stdin to the
// connection and the connection to stdout.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/paymentlogs/mintls"
	"github.com/paymentlogs/mintls/internal/x509min"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:   "mintlsclient host:port",
		Short: "connect to a server with a minimal TLS 1.2 client",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := zap.NewNop()
			if verbose {
				var err error
				logger, err = zap.NewDevelopment()
				if err != nil {
					return fmt.Errorf("building logger: %w", err)
				}
			}
			defer logger.Sync()

			return run(args[0], mintls.NewLogger(logger))
		},
	}

	root.Flags().BoolVarP(&verbose, "verbose", "v", false, "log handshake progress")
	return root
}

func run(addr string, logger *mintls.Logger) error {
	conn, err := mintls.DialTCP(addr, &mintls.Config{Logger: logger})
	if err != nil {
		return fmt.Errorf("handshake with %s: %w", addr, err)
	}
	defer conn.Close()

	printSubject(conn.PeerCertificate())

	errc := make(chan error, 2)
	go func() {
		// Conn.Write refuses payloads larger than one TLS record, so cap
		// the copy buffer at the record plaintext limit. Stdin is wrapped
		// so that its WriteTo cannot bypass buf.
		buf := make([]byte, 16384)
		_, err := io.CopyBuffer(writerOnly{conn}, struct{ io.Reader }{os.Stdin}, buf)
		errc <- err
	}()
	go func() {
		_, err := io.Copy(os.Stdout, conn)
		errc <- err
	}()
	return <-errc
}

// writerOnly hides any ReadFrom the wrapped writer might grow, keeping
// io.CopyBuffer on the sized-buffer path.
type writerOnly struct {
	io.Writer
}

func printSubject(cert *x509min.Certificate) {
	if cert == nil {
		return
	}
	for _, a := range cert.TBSCertificate.Subject.Attributes {
		if a.Value != "" {
			fmt.Fprintf(os.Stderr, "peer certificate subject attribute: %s\n", a.Value)
		}
	}
}
