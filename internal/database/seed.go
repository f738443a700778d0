package database

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/wfunc/monopoly-game/internal/logger"
	"github.com/wfunc/monopoly-game/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type cardSeed struct {
	title       string
	description string
	cost        int64
	color       models.CardColor
	action      models.CardAction
	value       int
}

var bovedaSeeds = []cardSeed{
	{"Constructor Privilegiado", "Puedes construir casas en cualquier momento.", 250, models.CardColorYellow, models.ActionKeep, 0},
	{"Títulos de Propiedad", "Eres dueño de los títulos. Cobras tú en lugar del banco.", 375, models.CardColorYellow, models.ActionKeep, 0},
	{"Tren de Victorias", "Si posees 4 ferrocarriles, ganas.", 225, models.CardColorGreen, models.ActionKeep, 0},
	{"Subasta Instantánea", "Subasta la siguiente propiedad sin dueño.", 25, models.CardColorRed, models.ActionCustom, 0},
	{"Casa del Éxito", "Ganas con: 1 ferrocarril, 1 esquina, 1 servicio, 1 impuesto.", 250, models.CardColorGreen, models.ActionKeep, 0},
	{"El Banco", "Eres dueño del banco. Usas dinero del banco para pagar.", 500, models.CardColorYellow, models.ActionKeep, 0},
	{"Monopolio Instantáneo", "Compra grupo completo.", 50, models.CardColorRed, models.ActionCustom, 0},
	{"Ladrón de Títulos", "Roba título más barato a cada jugador.", 200, models.CardColorRed, models.ActionCustom, 0},
	{"La Bóveda", "Eres dueño de la bóveda. Cobras tú las tarjetas de venta.", 500, models.CardColorYellow, models.ActionKeep, 0},
	{"Todos los de 50", "Toma todos los billetes de 50 de todos.", 300, models.CardColorRed, models.ActionCustom, 0},
	{"Número 7", "Controlas el 7. Mueves a quien saque 7.", 300, models.CardColorYellow, models.ActionKeep, 0},
	{"Propulsor", "Avanza a cualquier casilla en vez de tirar.", 150, models.CardColorRed, models.ActionCustom, 0},
	{"Campeón Doble", "Ganas con 2 grupos completos.", 300, models.CardColorGreen, models.ActionKeep, 0},
	{"Dado de Compra", "Eliges resultado del dado.", 275, models.CardColorYellow, models.ActionKeep, 0},
	{"Victoria por Barrida", "Ganas con 8 títulos.", 350, models.CardColorGreen, models.ActionKeep, 0},
	{"Bienes Raíces Gratis", "Coloca casa gratis.", 25, models.CardColorRed, models.ActionCustom, 0},
	{"Circuito Victoria", "Ganas con Muelle + Hotel.", 325, models.CardColorGreen, models.ActionKeep, 0},
	{"Dobles", "Ganas con 3 dobles.", 50, models.CardColorGreen, models.ActionKeep, 0},
	{"Todas las Construcciones", "Dueño de casas/hoteles. Cobras por construir.", 100, models.CardColorYellow, models.ActionKeep, 0},
	{"Salida Victoriosa", "Ganas al caer en Salida.", 200, models.CardColorGreen, models.ActionKeep, 0},
}

var arcaSeeds = []cardSeed{
	{"Venta de acciones", "Por venta de acciones, cobra 50", 0, "", models.ActionReceiveBank, 50},
	{"Devolución de impuestos", "Cobra 20", 0, "", models.ActionReceiveBank, 20},
	{"Herencia misteriosa", "Recibes una herencia misteriosa. Cobra 100", 0, "", models.ActionReceiveBank, 100},
	{"Error bancario", "Error bancario a tu favor. Cobra 200", 0, "", models.ActionReceiveBank, 200},
	{"Gastos escolares", "Paga 50", 0, "", models.ActionPayBank, 50},
	{"Cumpleaños", "Es tu cumpleaños. Cobra 10 a cada jugador", 0, "", models.ActionReceiveAll, 10},
	{"La Salida", "Avanza hasta la salida. Cobra 200", 0, "", models.ActionMoveTo, 0},
	{"Seguro de vida", "El seguro de vida te reporta beneficios. Cobra 100", 0, "", models.ActionReceiveBank, 100},
	{"Consultoría", "Honorarios de consultoria. Cobra 25", 0, "", models.ActionReceiveBank, 25},
	{"Reparaciones", "Debes hacer reparaciones viales. Paga por casas y hoteles.", 0, "", models.ActionRepair, 0},
	{"Fondo vacacional", "El fondo vacacional te reporta beneficios. Cobra 100", 0, "", models.ActionReceiveBank, 100},
	{"Cárcel", "Ve directamente a la cárcel", 0, "", models.ActionMoveTo, -1},
	{"Concurso de belleza", "Has ganado el segundo premio. Cobra 10", 0, "", models.ActionReceiveBank, 10},
	{"Adoptas un perrito", "Paga 50", 0, "", models.ActionPayBank, 50},
	{"Hospital", "Facturas de hospital. Paga 100", 0, "", models.ActionPayBank, 100},
	{"Sal de la Cárcel", "Sal de la carcel gratis. Conservar.", 0, "", models.ActionKeep, 0},
}

var fortunaSeeds = []cardSeed{
	{"Ferrocarril", "Avanza al siguiente ferrocarril.", 0, "", models.ActionMoveTo, 0},
	{"San Carlos", "Avanza hasta la plaza San Carlos.", 0, "", models.ActionMoveTo, 0},
	{"Cárcel", "Ve directamente a la cárcel.", 0, "", models.ActionMoveTo, -1},
	{"Muelle", "Avanza hasta el muelle.", 0, "", models.ActionMoveTo, 0},
	{"Retrocede", "Retrocede tres casillas.", 0, "", models.ActionMoveTo, -3},
	{"Reading", "Viaja hasta el ferrocarril Reading.", 0, "", models.ActionMoveTo, 0},
	{"Dividendo", "El banco te paga un dividendo de 50.", 0, "", models.ActionReceiveBank, 50},
	{"Presidente", "Elegido presidente. Paga a cada jugador 50.", 0, "", models.ActionPayAll, 50},
	{"Salida", "Avanza hasta la salida.", 0, "", models.ActionMoveTo, 0},
	{"Préstamo", "Por cumplimiento del préstamo, cobra 150.", 0, "", models.ActionReceiveBank, 150},
	{"Servicio Público", "Avanza al servicio público más cercano.", 0, "", models.ActionMoveTo, 0},
	{"Sal de la Cárcel", "Sal de la carcel gratis.", 0, "", models.ActionKeep, 0},
	{"Illinois", "Avanza a la Avenida Illinois.", 0, "", models.ActionMoveTo, 0},
	{"Reparaciones", "Reparaciones generales.", 0, "", models.ActionRepair, 0},
	{"Multa", "Multa por exceso de velocidad. Paga 15.", 0, "", models.ActionPayBank, 15},
}

type propertySeed struct {
	name     string
	group    string
	position int
	price    int64
}

// 可购买的28块地产，按棋盘位置排列
var propertySeeds = []propertySeed{
	{"Avenida Mediterráneo", "brown", 1, 60},
	{"Avenida Báltica", "brown", 3, 60},
	{"Ferrocarril Reading", "railroad", 5, 200},
	{"Avenida Oriental", "light_blue", 6, 100},
	{"Avenida Vermont", "light_blue", 8, 100},
	{"Avenida Connecticut", "light_blue", 9, 120},
	{"Plaza San Carlos", "pink", 11, 140},
	{"Compañía de Electricidad", "utility", 12, 150},
	{"Avenida Estados", "pink", 13, 140},
	{"Avenida Virginia", "pink", 14, 160},
	{"Ferrocarril Pennsylvania", "railroad", 15, 200},
	{"Plaza St. James", "orange", 16, 180},
	{"Avenida Tennessee", "orange", 18, 180},
	{"Avenida Nueva York", "orange", 19, 200},
	{"Avenida Kentucky", "red", 21, 220},
	{"Avenida Indiana", "red", 23, 220},
	{"Avenida Illinois", "red", 24, 240},
	{"Ferrocarril B. & O.", "railroad", 25, 200},
	{"Avenida Atlántico", "yellow", 26, 260},
	{"Avenida Ventnor", "yellow", 27, 260},
	{"Compañía de Agua", "utility", 28, 150},
	{"Jardines Marvin", "yellow", 29, 280},
	{"Avenida Pacífico", "green", 31, 300},
	{"Avenida Carolina del Norte", "green", 32, 300},
	{"Avenida Pennsylvania", "green", 34, 320},
	{"Ferrocarril Vía Rápida", "railroad", 35, 200},
	{"Plaza Park", "dark_blue", 37, 350},
	{"El Muelle", "dark_blue", 39, 400},
}

// 色组建造费用，房屋与酒店同价
var buildingCosts = map[string]int64{
	"brown":      50,
	"light_blue": 50,
	"pink":       100,
	"orange":     100,
	"red":        150,
	"yellow":     150,
	"green":      200,
	"dark_blue":  200,
}

// SeedCatalog 写入卡牌与地产目录（已存在则跳过）
func SeedCatalog(db *gorm.DB) error {
	if err := seedDeck(db, models.DeckBoveda, bovedaSeeds); err != nil {
		return err
	}
	if err := seedDeck(db, models.DeckArca, arcaSeeds); err != nil {
		return err
	}
	if err := seedDeck(db, models.DeckFortuna, fortunaSeeds); err != nil {
		return err
	}
	return seedProperties(db)
}

func seedDeck(db *gorm.DB, deck models.DeckType, seeds []cardSeed) error {
	var count int64
	if err := db.Model(&models.Card{}).Where("type = ?", deck).Count(&count).Error; err != nil {
		return fmt.Errorf("统计卡牌失败: %w", err)
	}
	if count > 0 {
		return nil
	}

	cards := make([]models.Card, 0, len(seeds))
	for _, s := range seeds {
		card := models.Card{
			Type:        deck,
			Title:       s.title,
			Description: s.description,
			Color:       s.color,
			ActionType:  s.action,
		}
		if s.cost > 0 {
			card.Cost = decimal.NewNullDecimal(decimal.NewFromInt(s.cost))
		}
		if deck.Drawable() {
			value := s.value
			card.ActionValue = &value
		}
		cards = append(cards, card)
	}

	if err := db.Create(&cards).Error; err != nil {
		return fmt.Errorf("写入%s卡牌失败: %w", deck, err)
	}
	logger.Info("卡牌目录初始化完成", zap.String("deck", string(deck)), zap.Int("count", len(cards)))
	return nil
}

func seedProperties(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.Property{}).Count(&count).Error; err != nil {
		return fmt.Errorf("统计地产失败: %w", err)
	}
	if count > 0 {
		return nil
	}

	half := decimal.NewFromFloat(0.5)
	interest := decimal.NewFromFloat(1.1)

	props := make([]models.Property, 0, len(propertySeeds))
	for _, s := range propertySeeds {
		price := decimal.NewFromInt(s.price)
		mortgage := price.Mul(half)
		p := models.Property{
			Name:            s.name,
			ColorGroup:      s.group,
			Position:        s.position,
			Price:           price,
			MortgageValue:   mortgage,
			UnmortgageValue: mortgage.Mul(interest).Round(2),
		}
		if cost, ok := buildingCosts[s.group]; ok {
			p.HouseCost = decimal.NewNullDecimal(decimal.NewFromInt(cost))
			p.HotelCost = decimal.NewNullDecimal(decimal.NewFromInt(cost))
		}
		props = append(props, p)
	}

	if err := db.Create(&props).Error; err != nil {
		return fmt.Errorf("写入地产失败: %w", err)
	}
	logger.Info("地产目录初始化完成", zap.Int("count", len(props)))
	return nil
}
