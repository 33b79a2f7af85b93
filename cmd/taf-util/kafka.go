package main

import (
	"fmt"

	"github.com/apitaf/apitaf/config"
	"github.com/apitaf/apitaf/kafka"

	"github.com/spf13/cobra"
)

type kafkaFlags struct {
	topic            string
	bootstrapServers string
	schemaRegistry   string
	schemaKey        string
	schemaValue      string
	messageKey       string
	messageValue     string
	kerberos         bool
	keytab           string
	krb5Config       string
}

func kafkaProducerCmd() *cobra.Command {
	var f kafkaFlags
	cmd := &cobra.Command{
		Use:   "kafka_producer",
		Short: "Send a Kafka message in Avro format",
		Example: `  taf-util kafka_producer -e dev -t ent-productsubscription-sub-evt-clt-dnr \
    --bootstrap-servers broker:9093 --schema-registry http://registry:8081 \
    --schema-key ent-productsubscription-sub-evt-clt-dnr-key \
    --schema-value ent-productsubscription-sub-evt-clt-dnr-value \
    --message-key '{"clientAccountId": "00H2A1IUKDOM9LTCEGF8"}' --message-value '{"version": 105}'`,
		RunE: traced("Kafka Producer: Send Message", func(cmd *cobra.Command, _ []string) error {
			env := config.NormalizeEnvironment(globals.environment)
			var kerberos *kafka.Kerberos
			if f.kerberos {
				k := kafka.DefaultKerberos()
				k.KeyTabPath = f.keytab
				if f.krb5Config != "" {
					k.KerberosConfigPath = f.krb5Config
				}
				kerberos = &k
			}
			registry := kafka.NewSchemaRegistry(f.schemaRegistry, nil)
			producer, err := kafka.Dial(f.bootstrapServers, registry, kafka.ProducerConfig(env, kerberos), logger())
			if err != nil {
				return err
			}
			defer producer.Close() //nolint:errcheck

			d, err := producer.Send(cmd.Context(), kafka.Message{
				Topic:        f.topic,
				KeySubject:   f.schemaKey,
				ValueSubject: f.schemaValue,
				Key:          f.messageKey,
				Value:        f.messageValue,
			})
			if err != nil {
				return fmt.Errorf("producing message value %s to topic %s: %w", f.messageValue, f.topic, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Successfully produced %s\n", d)
			return nil
		}),
	}
	fl := cmd.Flags()
	fl.StringVarP(&f.topic, "topic", "t", "", "topic name")
	fl.StringVar(&f.bootstrapServers, "bootstrap-servers", "", "bootstrap server addresses, comma separated")
	fl.StringVar(&f.schemaRegistry, "schema-registry", "", "schema registry URL")
	fl.StringVar(&f.schemaKey, "schema-key", "", "schema registry subject of the message key")
	fl.StringVar(&f.schemaValue, "schema-value", "", "schema registry subject of the message value")
	fl.StringVar(&f.messageKey, "message-key", "", "message key as JSON; a random UUID if not given")
	fl.StringVar(&f.messageValue, "message-value", "", "message value as JSON")
	fl.BoolVar(&f.kerberos, "kerberos", false, "connect with SASL/GSSAPI over TLS")
	fl.StringVar(&f.keytab, "keytab", "", "Kerberos keytab file")
	fl.StringVar(&f.krb5Config, "krb5-config", "", "Kerberos configuration file (default /etc/krb5.conf)")
	for _, name := range []string{"topic", "bootstrap-servers", "schema-registry", "schema-key", "schema-value", "message-value"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}
