// cmd/gentoken: prints a bearer token for the /v1 API.
// Uso: JWT_SECRET=... go run ./cmd/gentoken -operador ana -rol admin
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"vestibox/internal/config"
	"vestibox/internal/middleware"
)

func main() {
	operador := flag.String("operador", "admin", "nombre del operador (claim sub)")
	rol := flag.String("rol", middleware.RolAdmin, "admin | lectura")
	horas := flag.Int("horas", 0, "validez en horas (0 = JWT_EXPIRATION_HOURS)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	if cfg.JWTSecret == "" {
		fmt.Fprintln(os.Stderr, "JWT_SECRET no configurado: la API no exige token")
		os.Exit(1)
	}
	if *rol != middleware.RolAdmin && *rol != middleware.RolLectura {
		fmt.Fprintf(os.Stderr, "rol invalido %q\n", *rol)
		os.Exit(2)
	}

	ttl := time.Duration(cfg.JWTExpirationHours) * time.Hour
	if *horas > 0 {
		ttl = time.Duration(*horas) * time.Hour
	}

	tok, err := middleware.GenerarToken(cfg.JWTSecret, *operador, *rol, ttl)
	if err != nil {
		fmt.Fprintln(os.Stderr, "firmar token:", err)
		os.Exit(1)
	}
	fmt.Println(tok)
}
