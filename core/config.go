package core

import (
	"fmt"
	"log"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		AppName          string
		Env              string
		Build            string
		Debug            bool
		TestMode         bool
		SecretKey        string
		DefaultFromEmail string
		FrontendBaseURL  string
		LoginDomain      string
		TimeZone         string
		WorkDir          string

		PasswordResetTimeoutDelta time.Duration

		RollbarToken   string
		SendgridAPIKey string

		Server   ServerConfig
		Database DatabaseConfig
		Scoring  ScoringConfig
		Energy   EnergyConfig
		Notice   NoticeConfig
	}

	ServerConfig struct {
		Host                      string
		Port                      string
		DebugHost                 string
		ReadTimeout               time.Duration
		WriteTimeout              time.Duration
		ShutdownTimeout           time.Duration
		StreamHeartbeat           time.Duration
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
	}

	DatabaseConfig struct {
		Engine     string // sqlite | postgres
		Path       string // sqlite only
		Host       string
		Port       string
		Name       string
		User       string
		Password   string
		DisableTLS bool
	}

	// ScoringConfig holds the product thresholds of the domain scoring engine.
	// Per-person values are yearly costs (KRW) per student or staff member.
	ScoringConfig struct {
		ElectricityPerPerson float64
		GasPerPerson         float64
		WaterPerPerson       float64
		PaperPerPerson       float64
		DisposablePerPerson  float64
		WastePerPerson       float64
		CoolingAbove         float64
		HeatingBelow         float64
		SignalRed            int
		SignalYellow         int
	}

	// EnergyConfig holds emission factors in kg CO2e per unit of each metric.
	EnergyConfig struct {
		ElectricFactor float64 // per kWh
		GasFactor      float64 // per m3
		WaterFactor    float64 // per m3
		MaxAbsTemp     float64
	}

	NoticeConfig struct {
		Items    []string
		Interval time.Duration
		Epoch    time.Time
	}
)

// Address is the address the API server listens on.
func (sc ServerConfig) Address() string {
	return net.JoinHostPort(sc.Host, sc.Port)
}

func (dc DatabaseConfig) Address() string {
	return net.JoinHostPort(dc.Host, dc.Port)
}

// Location returns the time zone school days are counted in.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func NewConfig() *Config {
	conf := viper.New()

	// defaults
	conf.SetTypeByDefaultValue(true)
	conf.SetDefault("debug", true)
	conf.SetDefault("appName", "Tanso School")
	conf.SetDefault("build", "develop")
	conf.SetDefault("secretKey", "x3c!o9-g2m#v@k1l&b7q*tz8(uj)p6n0fa5r^hw4d_ye+s")
	conf.SetDefault("defaultFromEmail", "noreply@localhost")
	conf.SetDefault("frontendBaseURL", "http://localhost:3000")
	conf.SetDefault("loginDomain", "sen.go.kr")
	conf.SetDefault("timeZone", "Asia/Seoul")
	conf.SetDefault("passwordResetTimeoutDelta", 3*24*time.Hour)
	conf.SetDefault("rollbarToken", "")
	conf.SetDefault("sendgridAPIKey", "")

	conf.SetDefault("server.host", "")
	conf.SetDefault("server.port", "8000")
	conf.SetDefault("server.debugHost", "localhost:4000")
	conf.SetDefault("server.readTimeout", 5*time.Second)
	conf.SetDefault("server.writeTimeout", time.Duration(0)) // streams stay open
	conf.SetDefault("server.shutdownTimeout", 5*time.Second)
	conf.SetDefault("server.streamHeartbeat", 25*time.Second)
	conf.SetDefault("server.jwtExpirationDelta", 12*time.Hour)
	conf.SetDefault("server.jwtRefreshExpirationDelta", 7*24*time.Hour)

	conf.SetDefault("database.engine", "sqlite")
	conf.SetDefault("database.path", "dashboard.db")
	conf.SetDefault("database.host", "localhost")
	conf.SetDefault("database.port", "5432")
	conf.SetDefault("database.name", "dashboard")
	conf.SetDefault("database.user", "dashboard")
	conf.SetDefault("database.password", "")
	conf.SetDefault("database.disableTLS", true)

	conf.SetDefault("scoring.electricityPerPerson", 150000.0)
	conf.SetDefault("scoring.gasPerPerson", 50000.0)
	conf.SetDefault("scoring.waterPerPerson", 30000.0)
	conf.SetDefault("scoring.paperPerPerson", 5000.0)
	conf.SetDefault("scoring.disposablePerPerson", 3000.0)
	conf.SetDefault("scoring.wastePerPerson", 10000.0)
	conf.SetDefault("scoring.coolingAbove", 26.0)
	conf.SetDefault("scoring.heatingBelow", 20.0)
	conf.SetDefault("scoring.signalRed", 150)
	conf.SetDefault("scoring.signalYellow", 240)

	conf.SetDefault("energy.electricFactor", 0.4781)
	conf.SetDefault("energy.gasFactor", 2.176)
	conf.SetDefault("energy.waterFactor", 0.332)
	conf.SetDefault("energy.maxAbsTemp", 15.0)

	conf.SetDefault("notice.items", strings.Join(defaultNotices, "|"))
	conf.SetDefault("notice.interval", 5*time.Second)
	conf.SetDefault("notice.epoch", "2025-01-01T00:00:00Z")

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		conf.SetDefault("testMode", true)
	}
	conf.SetEnvPrefix(env)
	conf.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	wd := Getwd()
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	conf.AutomaticEnv()

	epoch, err := time.Parse(time.RFC3339, conf.GetString("notice.epoch"))
	if err != nil {
		log.Fatalf("config: invalid notice.epoch: %v", err)
	}

	return &Config{
		AppName:                   conf.GetString("appName"),
		Env:                       env,
		Build:                     conf.GetString("build"),
		Debug:                     conf.GetBool("debug"),
		TestMode:                  conf.GetBool("testMode"),
		SecretKey:                 conf.GetString("secretKey"),
		DefaultFromEmail:          conf.GetString("defaultFromEmail"),
		FrontendBaseURL:           strings.TrimRight(conf.GetString("frontendBaseURL"), "/"),
		LoginDomain:               conf.GetString("loginDomain"),
		TimeZone:                  conf.GetString("timeZone"),
		WorkDir:                   wd,
		PasswordResetTimeoutDelta: conf.GetDuration("passwordResetTimeoutDelta"),
		RollbarToken:              conf.GetString("rollbarToken"),
		SendgridAPIKey:            conf.GetString("sendgridAPIKey"),
		Server: ServerConfig{
			Host:                      conf.GetString("server.host"),
			Port:                      conf.GetString("server.port"),
			DebugHost:                 conf.GetString("server.debugHost"),
			ReadTimeout:               conf.GetDuration("server.readTimeout"),
			WriteTimeout:              conf.GetDuration("server.writeTimeout"),
			ShutdownTimeout:           conf.GetDuration("server.shutdownTimeout"),
			StreamHeartbeat:           conf.GetDuration("server.streamHeartbeat"),
			JWTExpirationDelta:        conf.GetDuration("server.jwtExpirationDelta"),
			JWTRefreshExpirationDelta: conf.GetDuration("server.jwtRefreshExpirationDelta"),
		},
		Database: DatabaseConfig{
			Engine:     conf.GetString("database.engine"),
			Path:       conf.GetString("database.path"),
			Host:       conf.GetString("database.host"),
			Port:       conf.GetString("database.port"),
			Name:       conf.GetString("database.name"),
			User:       conf.GetString("database.user"),
			Password:   conf.GetString("database.password"),
			DisableTLS: conf.GetBool("database.disableTLS"),
		},
		Scoring: ScoringConfig{
			ElectricityPerPerson: conf.GetFloat64("scoring.electricityPerPerson"),
			GasPerPerson:         conf.GetFloat64("scoring.gasPerPerson"),
			WaterPerPerson:       conf.GetFloat64("scoring.waterPerPerson"),
			PaperPerPerson:       conf.GetFloat64("scoring.paperPerPerson"),
			DisposablePerPerson:  conf.GetFloat64("scoring.disposablePerPerson"),
			WastePerPerson:       conf.GetFloat64("scoring.wastePerPerson"),
			CoolingAbove:         conf.GetFloat64("scoring.coolingAbove"),
			HeatingBelow:         conf.GetFloat64("scoring.heatingBelow"),
			SignalRed:            conf.GetInt("scoring.signalRed"),
			SignalYellow:         conf.GetInt("scoring.signalYellow"),
		},
		Energy: EnergyConfig{
			ElectricFactor: conf.GetFloat64("energy.electricFactor"),
			GasFactor:      conf.GetFloat64("energy.gasFactor"),
			WaterFactor:    conf.GetFloat64("energy.waterFactor"),
			MaxAbsTemp:     conf.GetFloat64("energy.maxAbsTemp"),
		},
		Notice: NoticeConfig{
			Items:    splitNotices(conf.GetString("notice.items")),
			Interval: conf.GetDuration("notice.interval"),
			Epoch:    epoch,
		},
	}
}

var defaultNotices = []string{
	"이번 달 전기 사용량 보고서가 업데이트되었습니다.",
	"학교 탄소중립 실천 체크리스트를 점검해 주세요.",
	"냉방 적정온도 26℃, 난방 적정온도 20℃를 지켜 주세요.",
}

func splitNotices(s string) []string {
	items := make([]string, 0)
	for _, item := range strings.Split(s, "|") {
		if item = CleanString(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

func (c *Config) String() string {
	return fmt.Sprintf("%s (%s, build %s)", c.AppName, c.Env, c.Build)
}
