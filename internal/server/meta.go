package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type metaResponse struct {
	Service      string    `json:"service"`
	Version      string    `json:"version"`
	HorizonStart time.Time `json:"horizon_start"`
	HorizonEnd   time.Time `json:"horizon_end"`
	StepMinutes  int       `json:"step_minutes"`
	TariffPerKWh float64   `json:"tariff_per_kwh"`
	CO2KgPerKWh  float64   `json:"co2_kg_per_kwh"`
	SavingsRatio float64   `json:"savings_ratio"`
	Fingerprint  string    `json:"fingerprint"`
	Units        int       `json:"units"`
	Samples      int       `json:"samples"`
}

func (s *Server) GetMeta(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": metaResponse{
		Service:      s.cfg.AppName,
		Version:      s.cfg.AppVersion,
		HorizonStart: s.building.HorizonStart,
		HorizonEnd:   s.building.HorizonEnd,
		StepMinutes:  s.building.StepMinutes(),
		TariffPerKWh: s.building.TariffPerKWh,
		CO2KgPerKWh:  s.building.CO2KgPerKWh,
		SavingsRatio: s.building.SavingsRatio,
		Fingerprint:  s.building.Fingerprint(),
		Units:        len(s.building.Units),
		Samples:      s.building.SampleCount(),
	}})
}

func (s *Server) ListUnits(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": s.building.Units})
}

type scheduleWindow struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type scheduleResponse struct {
	Weekdays []string         `json:"weekdays"`
	Windows  []scheduleWindow `json:"windows"`
}

func (s *Server) GetSchedule(c *gin.Context) {
	weekly := s.building.Schedule

	days := weekly.Weekdays()
	resp := scheduleResponse{
		Weekdays: make([]string, 0, len(days)),
		Windows:  make([]scheduleWindow, 0, len(weekly.Windows())),
	}
	for _, d := range days {
		resp.Weekdays = append(resp.Weekdays, d.String())
	}
	for _, w := range weekly.Windows() {
		resp.Windows = append(resp.Windows, scheduleWindow{
			Start: w.Start.String(),
			End:   w.End.String(),
		})
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
