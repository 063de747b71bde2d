// cmd/seed: carga un cliente y un catalogo de demo. Idempotente.
// Uso: go run ./cmd/seed
package main

import (
	"context"
	"errors"
	"os"
	"time"

	"vestibox/internal/config"
	"vestibox/internal/infra"
	"vestibox/internal/model"
	"vestibox/internal/repository"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	db, err := infra.NewDatabase(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	ctx := context.Background()
	clientes := repository.NewClienteRepository(db)
	productos := repository.NewProductoRepository(db)

	const email = "demo@vestibox.local"
	if _, err := clientes.FindByEmail(ctx, email); errors.Is(err, gorm.ErrRecordNotFound) {
		tel := "+54 11 5555-0000"
		if err := clientes.Create(ctx, &model.Cliente{Nombre: "Cliente Demo", Email: email, Telefono: &tel, Activo: true}); err != nil {
			log.Fatal().Err(err).Msg("seed cliente")
		}
		log.Info().Str("email", email).Msg("cliente demo creado")
	} else if err != nil {
		log.Fatal().Err(err).Msg("buscar cliente demo")
	}

	existentes, err := productos.List(ctx, 0, 1)
	if err != nil {
		log.Fatal().Err(err).Msg("listar productos")
	}
	if len(existentes) > 0 {
		log.Info().Msg("catalogo ya cargado, nada que hacer")
		return
	}

	catalogo := []model.Producto{
		{Nombre: "Traje clasico", PrecioVenta: decimal.NewFromInt(250), PrecioAlquiler: decimal.NewFromInt(60), Stock: 8, Talla: "M", Color: "Negro"},
		{Nombre: "Vestido de gala", PrecioVenta: decimal.NewFromInt(320), PrecioAlquiler: decimal.NewFromInt(80), Stock: 5, Talla: "S", Color: "Rojo"},
		{Nombre: "Smoking", PrecioVenta: decimal.NewFromInt(400), PrecioAlquiler: decimal.NewFromInt(95), Stock: 4, Talla: "L", Color: "Negro"},
		{Nombre: "Corbata de seda", PrecioVenta: decimal.NewFromInt(20), PrecioAlquiler: decimal.NewFromInt(5), Stock: 30, Talla: "U", Color: "Azul"},
	}
	for i := range catalogo {
		if err := productos.Create(ctx, &catalogo[i]); err != nil {
			log.Fatal().Err(err).Str("producto", catalogo[i].Nombre).Msg("seed producto")
		}
	}
	log.Info().Int("productos", len(catalogo)).Msg("catalogo demo cargado")
}
