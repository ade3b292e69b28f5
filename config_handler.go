package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"strings"
	"unicode"

	"atelier/config"

	"go.uber.org/zap"
)

func writeJSONError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{"message": message})
}

// GetConfigHandler returns the current config with secrets blanked.
func GetConfigHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg := config.GetConfig()
		cfg.AdminPasswordHash = ""
		cfg.JWTSecret = ""
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(cfg)
	}
}

// SaveConfigHandler stores a new config. Blank secrets keep the values
// stored in the config file.
func SaveConfigHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var newCfg config.Config
		if err := json.NewDecoder(r.Body).Decode(&newCfg); err != nil {
			writeJSONError(w, "Requisição inválida.", http.StatusBadRequest)
			return
		}

		current := config.FileConfig()
		if newCfg.AdminPasswordHash == "" {
			newCfg.AdminPasswordHash = current.AdminPasswordHash
		}
		if newCfg.JWTSecret == "" {
			newCfg.JWTSecret = current.JWTSecret
		}

		if err := validateWhatsAppNumber(newCfg.WhatsAppNumber); err != nil {
			writeJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := validateFolderPath(newCfg.MediaDir); err != nil {
			writeJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := validateFilePath(newCfg.SizesFile); err != nil {
			writeJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}

		if err := config.SaveConfig(newCfg); err != nil {
			zap.S().Errorf("Error saving config: %v", err)
			writeJSONError(w, "Falha ao salvar as configurações.", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"message": "Configurações salvas."})
	}
}

func validateWhatsAppNumber(number string) error {
	if strings.TrimSpace(number) == "" {
		return nil
	}
	digits := 0
	for _, r := range number {
		switch {
		case unicode.IsDigit(r):
			digits++
		case r == '+' || r == ' ' || r == '-' || r == '(' || r == ')':
		default:
			return errors.New("Número de WhatsApp inválido: " + number)
		}
	}
	if digits < 10 {
		return errors.New("Número de WhatsApp deve incluir DDI e DDD: " + number)
	}
	return nil
}

func validateFolderPath(path string) error {
	if path == "" {
		return nil
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.New("Pasta não encontrada: " + path)
		}
		zap.S().Warnf("Error checking folder path: %v", err)
		return errors.New("Erro ao verificar a pasta.")
	}
	if !info.IsDir() {
		return errors.New("O caminho não é uma pasta: " + path)
	}
	return nil
}

func validateFilePath(path string) error {
	if path == "" {
		return nil
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.New("Arquivo não encontrado: " + path)
		}
		return errors.New("Erro ao verificar o arquivo.")
	}
	if info.IsDir() {
		return errors.New("O caminho é uma pasta: " + path)
	}
	return nil
}
