// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package bcq_test

import (
	"errors"
	"fmt"
	"time"

	"code.hybscloud.com/bcq"
)

// ExampleNewChannel demonstrates a single sender and receiver.
func ExampleNewChannel() {
	tx, rx := bcq.NewChannel[int](8)

	for i := 1; i <= 5; i++ {
		v := i * 10
		tx.Send(&v)
	}
	tx.Close()

	for {
		v, err := rx.Recv()
		if bcq.IsDisconnected(err) {
			break
		}
		fmt.Println(v)
	}

	// Output:
	// 10
	// 20
	// 30
	// 40
	// 50
}

// ExampleReceiver_Clone demonstrates that every receiver sees every
// element published after it was registered.
func ExampleReceiver_Clone() {
	tx, billing := bcq.NewChannel[string](8)

	msg := "order-1"
	tx.Send(&msg)

	// audit joins after order-1 and never sees it
	audit := billing.Clone()

	msg = "order-2"
	tx.Send(&msg)

	for {
		m, err := billing.TryRecv()
		if err != nil {
			break
		}
		fmt.Println("billing:", m)
	}
	for {
		m, err := audit.TryRecv()
		if err != nil {
			break
		}
		fmt.Println("audit:", m)
	}

	// Output:
	// billing: order-1
	// billing: order-2
	// audit: order-2
}

// ExampleBuild demonstrates the builder API.
func ExampleBuild() {
	spin, _ := bcq.Build[int](bcq.New(64).Spin())
	block, _ := bcq.Build[int](bcq.New(100).Block())
	tuned, _ := bcq.Build[int](bcq.New(3).Hybrid(100, 10).Detached())

	fmt.Println("Spin capacity:", spin.Cap())
	fmt.Println("Block capacity:", block.Cap())
	fmt.Println("Tuned capacity:", tuned.Cap())

	// Output:
	// Spin capacity: 64
	// Block capacity: 128
	// Tuned capacity: 4
}

// ExampleIsWouldBlock demonstrates non-blocking backpressure handling.
func ExampleIsWouldBlock() {
	tx, rx := bcq.NewChannel[int](2)

	for i := range 3 {
		err := tx.TrySend(&i)
		if bcq.IsWouldBlock(err) {
			fmt.Println("full at", i)
			break
		}
	}

	// The slowest receiver frees a slot.
	rx.TryRecv()
	v := 2
	fmt.Println("retry:", tx.TrySend(&v))

	// Output:
	// full at 2
	// retry: <nil>
}

// ExampleSender_SendTimeout demonstrates bounded waiting.
func ExampleSender_SendTimeout() {
	tx, _ := bcq.NewChannel[int](1)

	v := 1
	tx.Send(&v)

	err := tx.SendTimeout(&v, 10*time.Millisecond)
	fmt.Println(errors.Is(err, bcq.ErrTimeout))
	fmt.Println(bcq.IsWouldBlock(err))

	// Output:
	// true
	// true
}

// Example_disconnect demonstrates teardown in both directions.
func Example_disconnect() {
	tx, rx := bcq.NewChannel[int](4)

	v := 42
	tx.Send(&v)
	tx.Close()

	// The backlog drains before the disconnect is reported.
	got, err := rx.Recv()
	fmt.Println(got, err)
	_, err = rx.Recv()
	fmt.Println(err)

	tx2, rx2 := bcq.NewChannel[int](4)
	rx2.Close()
	fmt.Println(tx2.Send(&v))

	// Output:
	// 42 <nil>
	// bcq: disconnected
	// bcq: disconnected
}
