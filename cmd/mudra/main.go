// Command mudra controls YouTube and OTT players with hand gestures seen
// through the webcam.
package main

func main() {
	Execute()
}
