// Command keygen creates the ECDSA P-256 key used to sign access tokens.
package main

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"flag"
	"fmt"
	"os"
	"strings"
)

func main() {
	out := flag.String("out", "jwt-private-key.pem", "file to write the PEM encoded private key to")
	flag.Parse()

	if err := run(*out); err != nil {
		fmt.Fprintf(os.Stderr, "keygen: %v\n", err)
		os.Exit(1)
	}
}

func run(out string) error {
	privateKeyPEM, err := generateKeyPEM()
	if err != nil {
		return err
	}

	if err := os.WriteFile(out, privateKeyPEM, 0o600); err != nil {
		return fmt.Errorf("failed to write private key file: %w", err)
	}

	fmt.Println("Generated ECDSA P-256 key pair for JWT signing.")
	fmt.Printf("Private key saved to: %s\n\n", out)
	fmt.Println("Add this line to your .env file:")
	fmt.Printf("JWT_SECRET=\"%s\"\n", envLine(privateKeyPEM))
	return nil
}

func generateKeyPEM() ([]byte, error) {
	privateKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}

	der, err := x509.MarshalECPrivateKey(privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal private key: %w", err)
	}

	return pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: der}), nil
}

// envLine folds the PEM block onto one line with escaped newlines
func envLine(pemBytes []byte) string {
	return strings.ReplaceAll(strings.TrimRight(string(pemBytes), "\n"), "\n", `\n`)
}
