/*
Package redisq publishes fired schedule actions to a Redis Stream so
executors outside the deterministic step-processing environment can consume
them.

Each firing becomes one stream record with a unique event id, the JSON
encoded origin and action, and the publishing instance. The stream is capped
with approximate MAXLEN trimming and every Redis operation runs under the
configured timeout.

	rdb := redis.NewClient(&redis.Options{Addr: "localhost:6379"})

	pub, err := redisq.New(redisq.Config{
		Redis:  rdb,
		Stream: "stepflow:dispatch",
	})
	if err != nil {
		log.Fatal(err)
	}

	eng, _ := engine.New(engine.Config{Clock: clock, Dispatcher: pub})

Publishing failures surface as *RedisError; the engine logs them and moves
on, per its non-fatal dispatch policy.
*/
package redisq
