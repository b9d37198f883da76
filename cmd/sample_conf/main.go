package main

import (
	"flag"
	"os"
	"reflect"

	"github.com/LeoCommon/foxhunter/internal/hunter/config"
	"github.com/LeoCommon/foxhunter/pkg/file"
	"github.com/LeoCommon/foxhunter/pkg/log"
	"github.com/pelletier/go-toml/v2"
	"go.uber.org/zap"
)

// fillEmpty walks the config tree and gives empty values a placeholder,
// so fields tagged omitempty still show up in the sample
func fillEmpty(v reflect.Value) {
	switch v.Kind() {
	case reflect.Ptr:
		if v.IsNil() {
			v.Set(reflect.New(v.Type().Elem()))
		}
		fillEmpty(v.Elem())
	case reflect.Slice:
		if v.Len() == 0 {
			v.Set(reflect.Append(v, reflect.New(v.Type().Elem()).Elem()))
		}
		for i := 0; i < v.Len(); i++ {
			fillEmpty(v.Index(i))
		}
	case reflect.Struct:
		for i := 0; i < v.NumField(); i++ {
			field := v.Field(i)
			if field.Kind() == reflect.String && field.String() == "" {
				field.SetString(placeholder(field, v.Type().Field(i).Name))
				continue
			}
			fillEmpty(field)
		}
	}
}

// placeholder prefers the first supported option of enum like types
func placeholder(v reflect.Value, name string) string {
	options := v.MethodByName("SupportedOptions")
	if options.IsValid() {
		if opts := options.Call(nil)[0]; opts.Len() > 0 {
			return opts.Index(0).String()
		}
	}
	return name
}

func sample() ([]byte, error) {
	cf := config.New()
	fillEmpty(reflect.ValueOf(cf).Elem())
	return toml.Marshal(cf)
}

func main() {
	out := flag.String("out", "./config/config.toml", "where the sample config is written")
	flag.Parse()

	log.Init(true)

	data, err := sample()
	if err != nil {
		log.Fatal("could not marshal sample config", zap.Error(err))
	}

	if err := file.WriteTo(*out, string(data)); err != nil {
		log.Error("Failed to write config file", zap.Error(err))
		os.Exit(1)
	}

	log.Info("sample config written", zap.String("path", *out))
}
